// Package world 城市路网、区域、屏障与地标的只读模型
// 构建完成后不再修改，所有代理共享同一实例
package world

import (
	"cmp"
	"fmt"
	"slices"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/router/algo"
	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/puzpuzpuz/xsync/v3"
	"gonum.org/v1/gonum/graph/simple"
)

type World struct {
	cfg *config.Config

	// 按ID升序，下标即搜索时的节点编号
	nodes     []*Node
	nodeIndex map[int32]int
	// 按ID升序，下标即对偶图的节点编号
	edges     []*Edge
	edgeIndex map[int32]int

	regions   map[int32]*Region
	regionIDs []int32
	barriers  map[int32]*Barrier
	buildings map[int32]*Building

	outgoing    map[int32][]DirectedEdge
	edgeBetween map[[2]int32]int32
	turns       map[int32][]Turn
	dual        map[int32]DualNode
	bound       orb.Bound

	// 全路网（双向），用于带规避集合的搜索
	network *algo.SearchGraph[int32, DirectedEdge]
	// 全路网的gonum表示，用于中心性与最短路
	gonum *simple.WeightedUndirectedGraph

	lines *xsync.MapOf[DirectedEdge, *IndexedLine]
}

func pairKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

func New(ds *Dataset, cfg *config.Config) (*World, error) {
	if len(ds.Nodes) == 0 || len(ds.Edges) == 0 {
		return nil, ErrEmptyDataset
	}
	w := &World{
		cfg:         cfg,
		nodeIndex:   make(map[int32]int, len(ds.Nodes)),
		edgeIndex:   make(map[int32]int, len(ds.Edges)),
		regions:     make(map[int32]*Region),
		barriers:    make(map[int32]*Barrier),
		buildings:   make(map[int32]*Building),
		outgoing:    make(map[int32][]DirectedEdge, len(ds.Nodes)),
		edgeBetween: make(map[[2]int32]int32, len(ds.Edges)),
		turns:       make(map[int32][]Turn, len(ds.Edges)),
		dual:        make(map[int32]DualNode, len(ds.Edges)),
		lines:       xsync.NewMapOf[DirectedEdge, *IndexedLine](),
	}
	nodeRecords := slices.Clone(ds.Nodes)
	slices.SortFunc(nodeRecords, func(a, b NodeRecord) int { return cmp.Compare(a.ID, b.ID) })
	for i, r := range nodeRecords {
		n := &Node{ID: r.ID, Point: orb.Point{r.X, r.Y}, Region: r.Region}
		if i == 0 {
			w.bound = orb.Bound{Min: n.Point, Max: n.Point}
		}
		w.bound = w.bound.Extend(n.Point)
		w.nodes = append(w.nodes, n)
		w.nodeIndex[n.ID] = i
	}
	edgeRecords := slices.Clone(ds.Edges)
	slices.SortFunc(edgeRecords, func(a, b EdgeRecord) int { return cmp.Compare(a.ID, b.ID) })
	for _, r := range edgeRecords {
		if err := w.addEdge(r); err != nil {
			return nil, err
		}
	}
	w.buildRegions()
	w.addBuildings(ds.Buildings)
	if err := w.attachBarriers(ds.Barriers); err != nil {
		return nil, err
	}
	w.buildDual()
	if err := w.buildNetworks(); err != nil {
		return nil, err
	}
	w.computeCentrality(cfg.RouteChoice.CentralitySamples, cfg.Simulation.Seed)
	w.integrateLandmarks(ds.SightLines)
	log.Infof("world loaded: %s nodes, %s edges, %d regions, %d barriers, %s buildings",
		humanize.Comma(int64(len(w.nodes))), humanize.Comma(int64(len(w.edges))),
		len(w.regions), len(w.barriers), humanize.Comma(int64(len(w.buildings))))
	return w, nil
}

func (w *World) addEdge(r EdgeRecord) error {
	from, ok1 := w.nodeIndex[r.From]
	to, ok2 := w.nodeIndex[r.To]
	if !ok1 || !ok2 {
		return fmt.Errorf("edge %d (%d->%d): %w", r.ID, r.From, r.To, ErrDanglingEdge)
	}
	fromNode, toNode := w.nodes[from], w.nodes[to]
	var line orb.LineString
	if len(r.Line) >= 2 {
		line = make(orb.LineString, len(r.Line))
		for i, p := range r.Line {
			line[i] = orb.Point{p[0], p[1]}
		}
	} else {
		line = orb.LineString{fromNode.Point, toNode.Point}
	}
	length := r.Length
	if length <= 0 {
		length = planar.Length(line)
	}
	e := &Edge{
		ID:       r.ID,
		From:     r.From,
		To:       r.To,
		Length:   length,
		Highway:  r.Highway,
		RoadType: ClassifyRoad(r.Highway),
		Line:     line,
		Region:   NO_REGION,
	}
	if fromNode.Region == toNode.Region {
		e.Region = fromNode.Region
	}
	w.edgeIndex[e.ID] = len(w.edges)
	w.edges = append(w.edges, e)
	fromNode.Edges = append(fromNode.Edges, e.ID)
	toNode.Edges = append(toNode.Edges, e.ID)
	w.outgoing[e.From] = append(w.outgoing[e.From], DirectedEdge{Edge: e.ID, From: e.From, To: e.To})
	w.outgoing[e.To] = append(w.outgoing[e.To], DirectedEdge{Edge: e.ID, From: e.To, To: e.From})
	if _, ok := w.edgeBetween[pairKey(e.From, e.To)]; !ok {
		w.edgeBetween[pairKey(e.From, e.To)] = e.ID
	}
	return nil
}

func (w *World) Config() *config.Config {
	return w.cfg
}

func (w *World) Bound() orb.Bound {
	return w.bound
}

// Node 不存在时返回nil
func (w *World) Node(id int32) *Node {
	if i, ok := w.nodeIndex[id]; ok {
		return w.nodes[i]
	}
	return nil
}

func (w *World) Edge(id int32) *Edge {
	if i, ok := w.edgeIndex[id]; ok {
		return w.edges[i]
	}
	return nil
}

func (w *World) Nodes() []*Node {
	return w.nodes
}

func (w *World) Edges() []*Edge {
	return w.edges
}

// NodeIndex 节点在搜索图中的下标
func (w *World) NodeIndex(id int32) (int, bool) {
	i, ok := w.nodeIndex[id]
	return i, ok
}

func (w *World) NodeAt(i int) *Node {
	return w.nodes[i]
}

func (w *World) EdgeIndex(id int32) (int, bool) {
	i, ok := w.edgeIndex[id]
	return i, ok
}

func (w *World) EdgeAt(i int) *Edge {
	return w.edges[i]
}

func (w *World) Region(id int32) *Region {
	return w.regions[id]
}

// Regions 按ID升序
func (w *World) Regions() []*Region {
	out := make([]*Region, 0, len(w.regionIDs))
	for _, id := range w.regionIDs {
		out = append(out, w.regions[id])
	}
	return out
}

func (w *World) Barrier(id int32) *Barrier {
	return w.barriers[id]
}

func (w *World) Barriers() map[int32]*Barrier {
	return w.barriers
}

func (w *World) Building(id int32) *Building {
	return w.buildings[id]
}

func (w *World) Buildings() map[int32]*Building {
	return w.buildings
}

// Outgoing 从节点出发的有向边
func (w *World) Outgoing(n int32) []DirectedEdge {
	return w.outgoing[n]
}

func (w *World) EdgeBetween(a, b int32) (*Edge, bool) {
	id, ok := w.edgeBetween[pairKey(a, b)]
	if !ok {
		return nil, false
	}
	return w.Edge(id), true
}

func (w *World) DirectedEdgeBetween(a, b int32) (DirectedEdge, bool) {
	id, ok := w.edgeBetween[pairKey(a, b)]
	if !ok {
		return DirectedEdge{}, false
	}
	return DirectedEdge{Edge: id, From: a, To: b}, true
}

// Distance 两节点的直线距离
func (w *World) Distance(a, b int32) float64 {
	return planar.Distance(w.Node(a).Point, w.Node(b).Point)
}
