package world

import (
	"cmp"
	"slices"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Container 已知空间等任意可判断点包含关系的区域
type Container interface {
	Contains(p orb.Point) bool
}

// 节点与地标的关联：局部地标、锚点、可见远距离地标
func (w *World) integrateLandmarks(sightLines []SightLineRecord) {
	rc := w.cfg.RouteChoice
	locals := make([]*Building, 0)
	globals := make([]*Building, 0)
	for _, b := range w.buildings {
		if b.LocalLandmark {
			locals = append(locals, b)
		}
		if b.GlobalLandmark {
			globals = append(globals, b)
		}
	}
	slices.SortFunc(locals, func(a, b *Building) int { return cmp.Compare(a.ID, b.ID) })
	// 全局得分降序，同分按ID
	slices.SortFunc(globals, func(a, b *Building) int {
		if c := cmp.Compare(b.GlobalScore, a.GlobalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	visible := make(map[int32][]int32)
	for _, s := range sightLines {
		if b := w.buildings[s.Building]; b != nil && b.GlobalLandmark {
			visible[s.Node] = append(visible[s.Node], s.Building)
		}
	}
	for _, n := range w.nodes {
		n.LocalLandmarks = n.LocalLandmarks[:0]
		for _, b := range locals {
			if planar.Distance(n.Point, b.Point) <= rc.DistanceNodeLandmark {
				n.LocalLandmarks = append(n.LocalLandmarks, b.ID)
			}
		}
		for _, b := range globals {
			if len(n.Anchors) >= rc.NrAnchors {
				break
			}
			if d := planar.Distance(n.Point, b.Point); d <= rc.DistanceAnchors {
				n.Anchors = append(n.Anchors, b.ID)
				n.AnchorDistances = append(n.AnchorDistances, d)
			}
		}
		if len(sightLines) > 0 {
			n.VisibleLandmarks = visible[n.ID]
			slices.Sort(n.VisibleLandmarks)
			continue
		}
		for _, b := range globals {
			if planar.Distance(n.Point, b.Point) <= rc.VisibilityRadius {
				n.VisibleLandmarks = append(n.VisibleLandmarks, b.ID)
			}
		}
	}
}

func centralityThreshold(nodes []*Node, percentile float64) float64 {
	data := make(stats.Float64Data, 0, len(nodes))
	for _, n := range nodes {
		data = append(data, n.Centrality)
	}
	t, err := stats.Percentile(data, percentile*100)
	if err != nil {
		return 1
	}
	return t
}

// SalientNodes 中心性不低于percentile分位数的节点
func (w *World) SalientNodes(percentile float64) Set {
	t := centralityThreshold(w.nodes, percentile)
	out := NewSet()
	for _, n := range w.nodes {
		if n.Centrality >= t && n.Centrality > 0 {
			out.Add(n.ID)
		}
	}
	return out
}

// SalientNodesWithin 以a、b为直径的圆内（略放大）的显著节点，分位数在圆内节点上计算
func (w *World) SalientNodesWithin(a, b int32, percentile float64) []int32 {
	pa, pb := w.Node(a).Point, w.Node(b).Point
	center := orb.Point{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2}
	radius := planar.Distance(pa, pb) / 2 * 1.1
	inside := make([]*Node, 0)
	for _, n := range w.nodes {
		if planar.Distance(n.Point, center) <= radius {
			inside = append(inside, n)
		}
	}
	return salientAmong(inside, percentile)
}

// SalientNodesOf 给定节点中的显著节点，分位数在这些节点上计算
func (w *World) SalientNodesOf(ids []int32, percentile float64) []int32 {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n := w.Node(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	return salientAmong(nodes, percentile)
}

func salientAmong(nodes []*Node, percentile float64) []int32 {
	if len(nodes) == 0 {
		return nil
	}
	t := centralityThreshold(nodes, percentile)
	out := make([]int32, 0)
	for _, n := range nodes {
		if n.Centrality >= t && n.Centrality > 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// NodesWithin 落在c中的节点
func (w *World) NodesWithin(c Container) Set {
	out := NewSet()
	for _, n := range w.nodes {
		if c.Contains(n.Point) {
			out.Add(n.ID)
		}
	}
	return out
}

// EdgesBetweenNodes 两端都在nodes中的边
func (w *World) EdgesBetweenNodes(nodes Set) Set {
	out := NewSet()
	for _, e := range w.edges {
		if nodes.Has(e.From) && nodes.Has(e.To) {
			out.Add(e.ID)
		}
	}
	return out
}

// NodesBetweenDistance candidates中与origin直线距离位于[lo,hi]的节点，升序
func (w *World) NodesBetweenDistance(origin int32, lo, hi float64, candidates Set) []int32 {
	p := w.Node(origin).Point
	out := make([]int32, 0)
	for _, id := range candidates.Sorted() {
		n := w.Node(id)
		if n == nil || id == origin {
			continue
		}
		if d := planar.Distance(p, n.Point); d >= lo && d <= hi {
			out = append(out, id)
		}
	}
	return out
}

// BuildingsWithin 圆内的建筑
func (w *World) BuildingsWithin(center orb.Point, radius float64) []int32 {
	out := make([]int32, 0)
	for id, b := range w.buildings {
		if planar.Distance(center, b.Point) <= radius {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
