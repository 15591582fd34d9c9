package world

import (
	"cmp"
	"slices"

	"git.fiblab.net/sim/wayfinding/router/algo"
)

// 并查集
type DisjointSet struct {
	Map map[int32]int32
}

func NewDisjointSet() *DisjointSet {
	return &DisjointSet{Map: make(map[int32]int32)}
}

// Add 已存在时不做任何事
func (d *DisjointSet) Add(x int32) {
	if _, ok := d.Map[x]; !ok {
		d.Map[x] = x
	}
}

func (d *DisjointSet) GetRoot(x int32) int32 {
	r := d.Map[x]
	if r == x {
		return r
	}
	d.Map[x] = d.GetRoot(r)
	return d.Map[x]
}

func (d *DisjointSet) Union(x, y int32) {
	rx, ry := d.GetRoot(x), d.GetRoot(y)
	if rx == ry {
		return
	}
	// 小根作为代表，保证结果与插入顺序无关
	if rx < ry {
		d.Map[ry] = rx
	} else {
		d.Map[rx] = ry
	}
}

// Islands 边集诱导子图的连通分量，按节点数降序
func (w *World) Islands(edges Set) [][]int32 {
	ds := NewDisjointSet()
	for _, id := range edges.Sorted() {
		e := w.Edge(id)
		if e == nil {
			continue
		}
		ds.Add(e.From)
		ds.Add(e.To)
		ds.Union(e.From, e.To)
	}
	groups := make(map[int32][]int32)
	for n := range ds.Map {
		r := ds.GetRoot(n)
		groups[r] = append(groups[r], n)
	}
	islands := make([][]int32, 0, len(groups))
	for _, g := range groups {
		slices.Sort(g)
		islands = append(islands, g)
	}
	slices.SortFunc(islands, func(a, b []int32) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})
	return islands
}

// MergeIslands 用全路网上的最短连接把各分量并入最大分量，返回补全后的边集
// 源路网本身不连通时无法合并的分量保持原样
func (w *World) MergeIslands(edges Set) Set {
	out := edges.Clone()
	islands := w.Islands(edges)
	if len(islands) <= 1 {
		return out
	}
	merged := NewSet(islands[0]...)
	expand := w.network.Expander(nil)
	for _, island := range islands[1:] {
		if merged.Has(island[0]) {
			continue
		}
		start := w.nodeIndex[island[0]]
		items, _ := algo.DijkstraTo(start, func(i int) bool {
			return merged.Has(w.nodes[i].ID)
		}, expand)
		if items == nil {
			log.Warnf("island with %d nodes cannot reach the main component", len(island))
			continue
		}
		for _, it := range items[:len(items)-1] {
			out.Add(it.EdgeAttr.Edge)
			merged.Add(it.EdgeAttr.From, it.EdgeAttr.To)
		}
		merged.Add(island...)
	}
	return out
}
