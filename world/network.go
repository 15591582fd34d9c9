package world

import (
	"math"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/router/algo"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func (w *World) buildNetworks() error {
	w.network = algo.NewSearchGraph[int32, DirectedEdge]()
	w.gonum = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, n := range w.nodes {
		w.network.InitNode(n.Point, n.ID)
		w.gonum.AddNode(simple.Node(n.ID))
	}
	for _, e := range w.edges {
		from, to := w.nodeIndex[e.From], w.nodeIndex[e.To]
		de := DirectedEdge{Edge: e.ID, From: e.From, To: e.To}
		if err := w.network.InitEdge(from, to, e.Length, de); err != nil {
			return err
		}
		if err := w.network.InitEdge(to, from, e.Length, de.Reverse()); err != nil {
			return err
		}
		if e.From == e.To {
			continue
		}
		// 平行边只保留最短的一条
		if old := w.gonum.WeightedEdge(int64(e.From), int64(e.To)); old != nil && old.Weight() <= e.Length {
			continue
		}
		w.gonum.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(e.From),
			T: simple.Node(e.To),
			W: e.Length,
		})
	}
	return nil
}

func (w *World) euclidean(x, y graph.Node) float64 {
	return planar.Distance(w.Node(int32(x.ID())).Point, w.Node(int32(y.ID())).Point)
}

// ShortestPath 全路网上的最短路（gonum A*），不可达时返回nil与+Inf
func (w *World) ShortestPath(o, d int32) ([]DirectedEdge, float64) {
	if o == d {
		return []DirectedEdge{}, 0
	}
	pt, _ := path.AStar(simple.Node(o), simple.Node(d), w.gonum, w.euclidean)
	nodes, cost := pt.To(int64(d))
	if len(nodes) == 0 {
		return nil, math.Inf(0)
	}
	out := make([]DirectedEdge, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		de, _ := w.DirectedEdgeBetween(int32(nodes[i-1].ID()), int32(nodes[i].ID()))
		out = append(out, de)
	}
	return out, cost
}

// ShortestPathAvoiding 全路网上跳过skip返回true的边的最短路
func (w *World) ShortestPathAvoiding(o, d int32, skip func(DirectedEdge) bool) ([]DirectedEdge, float64) {
	from, ok1 := w.nodeIndex[o]
	to, ok2 := w.nodeIndex[d]
	if !ok1 || !ok2 {
		return nil, math.Inf(0)
	}
	items, cost := w.network.ShortestPath(from, to, skip)
	if items == nil {
		return nil, cost
	}
	return lo.Map(items[:len(items)-1], func(it algo.PathItem[DirectedEdge], _ int) DirectedEdge {
		return it.EdgeAttr
	}), cost
}

// 采样源点的最短路树，统计各节点被经过的次数，归一化后作为中心性
func (w *World) computeCentrality(samples int, seed int64) {
	n := len(w.nodes)
	if n < 3 {
		return
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eed))
	sources := lo.Map(w.nodes, func(n *Node, _ int) int32 { return n.ID })
	if samples > 0 && samples < n {
		rng.Shuffle(len(sources), func(i, j int) { sources[i], sources[j] = sources[j], sources[i] })
		sources = sources[:samples]
	}
	counts := make(map[int32]float64, n)
	for _, s := range sources {
		pt := path.DijkstraFrom(simple.Node(s), w.gonum)
		for _, t := range w.nodes {
			if t.ID == s {
				continue
			}
			nodes, _ := pt.To(int64(t.ID))
			for i := 1; i < len(nodes)-1; i++ {
				counts[int32(nodes[i].ID())]++
			}
		}
	}
	maxCount := lo.Max(lo.Values(counts))
	if maxCount == 0 {
		return
	}
	for _, node := range w.nodes {
		node.Centrality = counts[node.ID] / maxCount
	}
}
