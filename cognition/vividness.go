package cognition

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

// VividnessGrid 以栅格表示的空间记忆强度
// 只有所属代理写入，其他代理的查询通过读锁并发进行
type VividnessGrid struct {
	mu *xsync.RBMutex

	cellSize float64
	// 左下角，栅格扩展时保持与原有格子对齐
	origin     orb.Point
	cols, rows int
	// 按行展开 [y*cols + x]
	density []float32

	// 跨出行平滑后的原始强度
	smoothed float64
}

func NewVividnessGrid(bound orb.Bound, cellSize float64) *VividnessGrid {
	g := &VividnessGrid{
		mu:       xsync.NewRBMutex(),
		cellSize: cellSize,
		origin:   bound.Min,
	}
	g.cols = int(math.Floor((bound.Max[0]-bound.Min[0])/cellSize)) + 1
	g.rows = int(math.Floor((bound.Max[1]-bound.Min[1])/cellSize)) + 1
	g.density = make([]float32, g.cols*g.rows)
	return g
}

func (g *VividnessGrid) CellSize() float64 {
	return g.cellSize
}

func (g *VividnessGrid) cellOf(p orb.Point) (int, int) {
	return int(math.Floor((p[0] - g.origin[0]) / g.cellSize)),
		int(math.Floor((p[1] - g.origin[1]) / g.cellSize))
}

func (g *VividnessGrid) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.cols && y < g.rows
}

// 格子左下角的世界坐标
func (g *VividnessGrid) corner(x, y int) orb.Point {
	return orb.Point{g.origin[0] + float64(x)*g.cellSize, g.origin[1] + float64(y)*g.cellSize}
}

// 扩展栅格以覆盖b，重新分配并复制原有数据
func (g *VividnessGrid) grow(b orb.Bound) {
	minX, minY := g.cellOf(b.Min)
	maxX, maxY := g.cellOf(b.Max)
	if minX >= 0 && minY >= 0 && maxX < g.cols && maxY < g.rows {
		return
	}
	shiftX, shiftY := max(0, -minX), max(0, -minY)
	cols := max(g.cols, maxX+1) + shiftX
	rows := max(g.rows, maxY+1) + shiftY
	density := make([]float32, cols*rows)
	for y := 0; y < g.rows; y++ {
		copy(density[(y+shiftY)*cols+shiftX:], g.density[y*g.cols:(y+1)*g.cols])
	}
	g.origin = g.corner(-shiftX, -shiftY)
	g.cols, g.rows = cols, rows
	g.density = density
	log.Debugf("vividness grid grown to %dx%d", cols, rows)
}

// AddVisibilitySpace 多边形内的格子（以左下角判断）记忆强度增加weight
func (g *VividnessGrid) AddVisibilitySpace(mp orb.MultiPolygon, weight float64) {
	if len(mp) == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	b := mp.Bound()
	g.grow(b)
	minX, minY := g.cellOf(b.Min)
	maxX, maxY := g.cellOf(b.Max)
	for y := max(0, minY); y <= min(g.rows-1, maxY); y++ {
		for x := max(0, minX); x <= min(g.cols-1, maxX); x++ {
			if planar.MultiPolygonContains(mp, g.corner(x, y)) {
				g.density[y*g.cols+x] += float32(weight)
			}
		}
	}
}

// Value 点所在格子的记忆强度，栅格外为0
func (g *VividnessGrid) Value(p orb.Point) float64 {
	t := g.mu.RLock()
	defer g.mu.RUnlock(t)
	x, y := g.cellOf(p)
	if !g.inside(x, y) {
		return 0
	}
	return float64(g.density[y*g.cols+x])
}

// Snapshot 全部格子的拷贝
func (g *VividnessGrid) Snapshot() []float64 {
	t := g.mu.RLock()
	defer g.mu.RUnlock(t)
	return lo.Map(g.density, func(v float32, _ int) float64 { return float64(v) })
}

// UpdateCollage 强度不低于threshold的格子组成的已知空间
func (g *VividnessGrid) UpdateCollage(threshold float64) *Collage {
	t := g.mu.RLock()
	defer g.mu.RUnlock(t)
	c := newCollage(g.origin, g.cellSize, g.cols, g.rows)
	for i, v := range g.density {
		if v > 0 && float64(v) >= threshold {
			c.set(i)
		}
	}
	return c
}

// PercentileThreshold 正值格子中第p分位（按秩 p*(n-1)）的强度，没有正值时为0
func (g *VividnessGrid) PercentileThreshold(p float64) float64 {
	t := g.mu.RLock()
	positive := make([]float32, 0)
	for _, v := range g.density {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	g.mu.RUnlock(t)
	if len(positive) == 0 {
		return 0
	}
	slices.Sort(positive)
	k := int(p * float64(len(positive)-1))
	return float64(positive[lo.Clamp(k, 0, len(positive)-1)])
}

// DecayFactor 经过elapsed秒后的保留比例，ability越低遗忘越快
func DecayFactor(ability, elapsedSeconds, halfLifeDays float64) float64 {
	lambda := math.Ln2 / (halfLifeDays * 86400)
	adjusted := lambda * math.Pow(2, 1-ability)
	return math.Exp(-adjusted * elapsedSeconds)
}

// ApplyDecay 按指数衰减全部格子，返回是否有格子从threshold以上跌到以下
func (g *VividnessGrid) ApplyDecay(ability, elapsedSeconds, halfLifeDays, threshold float64) bool {
	factor := float32(DecayFactor(ability, elapsedSeconds, halfLifeDays))
	if factor == 1 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := false
	for i, old := range g.density {
		if old == 0 {
			continue
		}
		v := old * factor
		if v < DECAY_EPSILON {
			v = 0
		}
		g.density[i] = v
		if !changed && float64(old) >= threshold && float64(v) < threshold {
			changed = true
		}
	}
	return changed
}

// 圆内正值格子的强度
func (g *VividnessGrid) sampleBuffer(c orb.Point, radius float64) []float64 {
	r := int(math.Ceil(radius / g.cellSize))
	cx, cy := g.cellOf(c)
	out := make([]float64, 0)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			x, y := cx+dx, cy+dy
			if !g.inside(x, y) {
				continue
			}
			if planar.Distance(g.corner(x, y), c) > radius {
				continue
			}
			if v := g.density[y*g.cols+x]; v > 0 {
				out = append(out, float64(v))
			}
		}
	}
	return out
}

// VividnessBetween 起终点周围以及两点连线上每隔radius取样的圆内平均强度
func (g *VividnessGrid) VividnessBetween(a, b orb.Point, radius float64) float64 {
	t := g.mu.RLock()
	defer g.mu.RUnlock(t)
	samples := g.sampleBuffer(a, radius)
	samples = append(samples, g.sampleBuffer(b, radius)...)
	dx, dy := b[0]-a[0], b[1]-a[1]
	steps := max(1, int(math.Hypot(dx, dy)/radius))
	for i := 0; i <= steps; i++ {
		k := float64(i) / float64(steps)
		samples = append(samples, g.sampleBuffer(orb.Point{a[0] + k*dx, a[1] + k*dy}, radius)...)
	}
	mean, err := stats.Mean(samples)
	if err != nil {
		return 0
	}
	return mean
}

// EffectiveVividness 假设本次观察到raw时平滑后的强度与空间能力加权，结果在[0,1]，不改变平滑状态
func (g *VividnessGrid) EffectiveVividness(raw, spatialAbility, smoothing, weight float64) float64 {
	t := g.mu.RLock()
	s := (1-smoothing)*g.smoothed + smoothing*lo.Clamp(raw, 0, 1)
	g.mu.RUnlock(t)
	return lo.Clamp(weight*s+(1-weight)*spatialAbility, 0, 1)
}

// Observe 把raw计入跨出行的平滑强度，只由所属代理调用
func (g *VividnessGrid) Observe(raw, smoothing float64) {
	g.mu.Lock()
	g.smoothed = (1-smoothing)*g.smoothed + smoothing*lo.Clamp(raw, 0, 1)
	g.mu.Unlock()
}

// Smoothed 当前的平滑强度
func (g *VividnessGrid) Smoothed() float64 {
	t := g.mu.RLock()
	defer g.mu.RUnlock(t)
	return g.smoothed
}
