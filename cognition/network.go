package cognition

import (
	"math"

	"git.fiblab.net/sim/wayfinding/world"
)

// KnownNetwork 代理已知的连通子网：原始图的边与节点，以及对偶图的节点（即边）与转弯
// 生成后只读，认知地图调整时整体替换
type KnownNetwork struct {
	Edges     world.Set
	Nodes     world.Set
	DualNodes world.Set
}

func (k *KnownNetwork) HasEdge(id int32) bool {
	return k != nil && k.Edges.Has(id)
}

func (k *KnownNetwork) HasNode(id int32) bool {
	return k != nil && k.Nodes.Has(id)
}

// HasTurn 两条边都在已知对偶网络中
func (k *KnownNetwork) HasTurn(t world.Turn) bool {
	return k != nil && k.DualNodes.Has(t.From) && k.DualNodes.Has(t.To)
}

// NetworkBuilder 把已知边集修补为连通的原始图与对偶图
type NetworkBuilder struct {
	w         *world.World
	community *Community
}

func NewNetworkBuilder(c *Community) *NetworkBuilder {
	return &NetworkBuilder{w: c.World(), community: c}
}

func (b *NetworkBuilder) nodesOf(edges world.Set) world.Set {
	nodes := world.NewSet()
	for id := range edges {
		if e := b.w.Edge(id); e != nil {
			nodes.Add(e.From, e.To)
		}
	}
	return nodes
}

// 对偶图的连通分量数
func (b *NetworkBuilder) dualIslands(dualNodes world.Set) int {
	ds := world.NewDisjointSet()
	for _, id := range dualNodes.Sorted() {
		ds.Add(id)
		for _, t := range b.w.Turns(id) {
			if dualNodes.Has(t.To) {
				ds.Add(t.To)
				ds.Union(id, t.To)
			}
		}
	}
	roots := world.NewSet()
	for id := range ds.Map {
		roots.Add(ds.GetRoot(id))
	}
	return len(roots)
}

// Build 已知边集 -> 连通的原始子网，再由对偶图补全相邻的边
func (b *NetworkBuilder) Build(knownEdges world.Set) *KnownNetwork {
	edges := world.NewSet()
	for id := range knownEdges {
		if b.w.Edge(id) != nil {
			edges.Add(id)
		}
	}
	if len(b.w.Islands(edges)) > 1 {
		edges = b.w.MergeIslands(edges)
	}
	// 对偶：已知边以及与其相接的边
	dual := edges.Clone()
	for id := range edges {
		for _, t := range b.w.Turns(id) {
			dual.Add(t.To)
		}
	}
	if b.dualIslands(dual) > 1 {
		dual = b.w.MergeIslands(dual)
	}
	// 对偶节点对应的边及其端点都加入原始子网
	edges.Union(dual)
	return &KnownNetwork{Edges: edges, Nodes: b.nodesOf(edges), DualNodes: dual}
}

// MostKnownRoute 社区路网上a到b尽量走熟悉道路的路线
// 先避开次级、社区和未分类道路，找不到时逐级放开，结果按节点对缓存
func (b *NetworkBuilder) MostKnownRoute(from, to int32) ([]world.DirectedEdge, bool) {
	if from == to {
		return []world.DirectedEdge{}, true
	}
	if des, ok := b.community.CachedRoute(from, to); ok {
		return des, true
	}
	levels := b.community.relaxation()
	for attempt := 0; attempt <= len(levels); attempt++ {
		avoid := levels[attempt:]
		des, cost := b.w.ShortestPathAvoiding(from, to, func(d world.DirectedEdge) bool {
			for _, s := range avoid {
				if s.Has(d.Edge) {
					return true
				}
			}
			return false
		})
		if math.IsInf(cost, 0) {
			continue
		}
		b.community.StoreRoute(from, to, des, attempt == len(levels))
		return des, true
	}
	return nil, false
}

// AddRoute 把新节点及其与已知节点之间的路线并入已知网络，返回新的网络
func (b *NetworkBuilder) AddRoute(net *KnownNetwork, known, added int32) *KnownNetwork {
	edges := net.Edges.Clone()
	if e, ok := b.w.EdgeBetween(known, added); ok {
		edges.Add(e.ID)
	} else if des, ok := b.MostKnownRoute(known, added); ok {
		for _, d := range des {
			edges.Add(d.Edge)
		}
	} else {
		log.Warnf("node %d cannot be connected to known node %d", added, known)
	}
	if n := b.w.Node(added); n != nil {
		edges.Add(n.Edges...)
	}
	return b.Build(edges)
}
