package cognition

import (
	"cmp"
	"math"
	"math/bits"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Collage 已知空间：记忆强度达到阈值的格子集合
// 生成后不再修改
type Collage struct {
	origin     orb.Point
	cellSize   float64
	cols, rows int
	cells      []uint64
	count      int
}

func newCollage(origin orb.Point, cellSize float64, cols, rows int) *Collage {
	return &Collage{
		origin:   origin,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]uint64, (cols*rows+63)/64),
	}
}

func (c *Collage) set(i int) {
	if c.cells[i/64]&(1<<(i%64)) == 0 {
		c.count++
	}
	c.cells[i/64] |= 1 << (i % 64)
}

func (c *Collage) has(x, y int) bool {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return false
	}
	i := y*c.cols + x
	return c.cells[i/64]&(1<<(i%64)) != 0
}

// Len 格子数
func (c *Collage) Len() int {
	if c == nil {
		return 0
	}
	return c.count
}

// Area 面积（平方米）
func (c *Collage) Area() float64 {
	return float64(c.Len()) * c.cellSize * c.cellSize
}

// Cells 格子左下角的世界坐标，按行优先
func (c *Collage) Cells() []orb.Point {
	out := make([]orb.Point, 0, c.Len())
	for w, word := range c.cells {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			i := w*64 + b
			out = append(out, c.corner(i%c.cols, i/c.cols))
			word &= word - 1
		}
	}
	return out
}

func (c *Collage) corner(x, y int) orb.Point {
	return orb.Point{c.origin[0] + float64(x)*c.cellSize, c.origin[1] + float64(y)*c.cellSize}
}

func (c *Collage) Contains(p orb.Point) bool {
	if c == nil || c.count == 0 {
		return false
	}
	x := int(math.Floor((p[0] - c.origin[0]) / c.cellSize))
	y := int(math.Floor((p[1] - c.origin[1]) / c.cellSize))
	return c.has(x, y)
}

type vertex struct{ x, y int }

// 格子边界上的一段单位边，内部在左侧
type segment struct{ from, to vertex }

func (s segment) dir() vertex {
	return vertex{s.to.x - s.from.x, s.to.y - s.from.y}
}

// Polygons 把格子合并成连通多边形：外环逆时针，洞为顺时针
func (c *Collage) Polygons() orb.MultiPolygon {
	if c.Len() == 0 {
		return nil
	}
	out := make(map[vertex][]int)
	segs := make([]segment, 0)
	add := func(a, b vertex) {
		out[a] = append(out[a], len(segs))
		segs = append(segs, segment{a, b})
	}
	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			if !c.has(x, y) {
				continue
			}
			if !c.has(x, y-1) {
				add(vertex{x, y}, vertex{x + 1, y})
			}
			if !c.has(x+1, y) {
				add(vertex{x + 1, y}, vertex{x + 1, y + 1})
			}
			if !c.has(x, y+1) {
				add(vertex{x + 1, y + 1}, vertex{x, y + 1})
			}
			if !c.has(x-1, y) {
				add(vertex{x, y + 1}, vertex{x, y})
			}
		}
	}
	used := make([]bool, len(segs))
	rings := make([][]vertex, 0)
	for start := range segs {
		if used[start] {
			continue
		}
		ring := []vertex{segs[start].from}
		cur := start
		for {
			used[cur] = true
			s := segs[cur]
			if s.to == segs[start].from {
				break
			}
			next := -1
			// 对角相接处优先左转，使两个格子各自成环
			for _, cand := range out[s.to] {
				if used[cand] {
					continue
				}
				if next == -1 || turnRank(s.dir(), segs[cand].dir()) < turnRank(s.dir(), segs[next].dir()) {
					next = cand
				}
			}
			if next == -1 {
				break
			}
			ring = append(ring, s.to)
			cur = next
		}
		rings = append(rings, simplifyRing(ring))
	}

	shells := make([]orb.Polygon, 0)
	holes := make([]orb.Ring, 0)
	for _, r := range rings {
		ring := make(orb.Ring, 0, len(r)+1)
		for _, v := range r {
			ring = append(ring, c.corner(v.x, v.y))
		}
		ring = append(ring, ring[0])
		if ring.Orientation() == orb.CCW {
			shells = append(shells, orb.Polygon{ring})
		} else {
			holes = append(holes, ring)
		}
	}
	// 小的外环优先，嵌套时洞归属最内层
	slices.SortFunc(shells, func(a, b orb.Polygon) int {
		return cmp.Compare(math.Abs(planar.Area(a[0])), math.Abs(planar.Area(b[0])))
	})
	for _, h := range holes {
		probe := holeProbe(h, c.cellSize)
		for i := range shells {
			if planar.RingContains(shells[i][0], probe) {
				shells[i] = append(shells[i], h)
				break
			}
		}
	}
	return orb.MultiPolygon(shells)
}

// 左转为0，直行为1，右转为2
func turnRank(in, out vertex) int {
	cross := in.x*out.y - in.y*out.x
	switch {
	case cross > 0:
		return 0
	case cross == 0:
		return 1
	}
	return 2
}

// 去掉共线的中间顶点
func simplifyRing(r []vertex) []vertex {
	if len(r) < 4 {
		return r
	}
	out := make([]vertex, 0, len(r))
	n := len(r)
	for i := range r {
		prev, cur, next := r[(i+n-1)%n], r[i], r[(i+1)%n]
		d1 := vertex{cur.x - prev.x, cur.y - prev.y}
		d2 := vertex{next.x - cur.x, next.y - cur.y}
		if d1.x*d2.y-d1.y*d2.x != 0 {
			out = append(out, cur)
		}
	}
	return out
}

// 洞的第一条边左侧（已知格子内部）的一点
func holeProbe(h orb.Ring, cellSize float64) orb.Point {
	a, b := h[0], h[1]
	mx, my := (a[0]+b[0])/2, (a[1]+b[1])/2
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	return orb.Point{mx - dy/l*cellSize/4, my + dx/l*cellSize/4}
}
