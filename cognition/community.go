package cognition

import (
	"slices"

	"git.fiblab.net/sim/wayfinding/world"
	"github.com/dustin/go-humanize"
	"github.com/puzpuzpuz/xsync/v3"
)

// Community 全体代理共有的认知地图：主干道、显著路口、城市中心区域、水体与主路屏障、地标
// 构建后只读；路线缓存与启发值缓存可并发读写，同一键的并发写入以最后一次为准，不保证只计算一次
type Community struct {
	w *world.World

	// 按道路等级划分的边
	RoadEdges map[world.RoadType]world.Set

	KnownNodes    world.Set
	KnownEdges    world.Set
	KnownRegions  world.Set
	KnownBarriers world.Set

	LocalLandmarks  world.Set
	GlobalLandmarks world.Set
	// 中心性达到分位数的节点
	SalientNodes world.Set

	routes       *xsync.MapOf[[2]int32, []world.DirectedEdge]
	forcedRoutes *xsync.MapOf[[2]int32, []world.DirectedEdge]
	heuristics   *xsync.MapOf[[2]int32, float64]
}

func NewCommunity(w *world.World) *Community {
	rc := w.Config().RouteChoice
	c := &Community{
		w:               w,
		RoadEdges:       make(map[world.RoadType]world.Set),
		KnownNodes:      world.NewSet(),
		KnownEdges:      world.NewSet(),
		KnownRegions:    world.NewSet(),
		KnownBarriers:   world.NewSet(),
		LocalLandmarks:  world.NewSet(),
		GlobalLandmarks: world.NewSet(),
		routes:          xsync.NewMapOf[[2]int32, []world.DirectedEdge](),
		forcedRoutes:    xsync.NewMapOf[[2]int32, []world.DirectedEdge](),
		heuristics:      xsync.NewMapOf[[2]int32, float64](),
	}
	for t := world.ROAD_PRIMARY; t <= world.ROAD_UNKNOWN; t++ {
		c.RoadEdges[t] = world.NewSet()
	}
	for _, e := range w.Edges() {
		c.RoadEdges[e.RoadType].Add(e.ID)
	}

	c.KnownEdges.Union(c.RoadEdges[world.ROAD_PRIMARY]).Union(c.RoadEdges[world.ROAD_SECONDARY])
	if rc.IncludeTertiary {
		c.KnownEdges.Union(c.RoadEdges[world.ROAD_TERTIARY])
	}
	for _, id := range rc.CityCentreRegions {
		if w.Region(id) == nil {
			log.Warnf("city centre region %d does not exist", id)
			continue
		}
		c.KnownRegions.Add(id)
		c.KnownEdges.Union(w.RegionEdges(id))
	}
	for id := range c.KnownEdges {
		e := w.Edge(id)
		c.KnownNodes.Add(e.From, e.To)
	}
	c.SalientNodes = w.SalientNodes(rc.SalientNodesPercentile)
	c.KnownNodes.Union(c.SalientNodes)
	for id := range c.SalientNodes {
		c.KnownEdges.Add(w.Node(id).Edges...)
	}

	for id, b := range w.Barriers() {
		if b.Type == world.BARRIER_WATER || b.Type == world.BARRIER_ROAD {
			c.KnownBarriers.Add(id)
		}
	}
	for id, b := range w.Buildings() {
		if b.LocalLandmark {
			c.LocalLandmarks.Add(id)
		}
		if b.GlobalLandmark {
			c.GlobalLandmarks.Add(id)
		}
	}
	log.Infof("community map: %s known edges, %s known nodes, %d barriers, %d local / %d global landmarks",
		humanize.Comma(int64(len(c.KnownEdges))), humanize.Comma(int64(len(c.KnownNodes))),
		len(c.KnownBarriers), len(c.LocalLandmarks), len(c.GlobalLandmarks))
	return c
}

func (c *Community) World() *world.World {
	return c.w
}

// 逐级放开的道路等级：次级道路、社区道路、未分类道路
func (c *Community) relaxation() []world.Set {
	return []world.Set{
		c.RoadEdges[world.ROAD_TERTIARY],
		c.RoadEdges[world.ROAD_NEIGHBOURHOOD],
		c.RoadEdges[world.ROAD_UNKNOWN],
	}
}

func reverseRoute(des []world.DirectedEdge) []world.DirectedEdge {
	out := make([]world.DirectedEdge, len(des))
	for i, d := range des {
		out[len(des)-1-i] = d.Reverse()
	}
	return out
}

// CachedRoute 查找a到b的缓存路线，反向缓存会被翻转
func (c *Community) CachedRoute(a, b int32) ([]world.DirectedEdge, bool) {
	for _, m := range []*xsync.MapOf[[2]int32, []world.DirectedEdge]{c.routes, c.forcedRoutes} {
		if des, ok := m.Load([2]int32{a, b}); ok {
			return slices.Clone(des), true
		}
		if des, ok := m.Load([2]int32{b, a}); ok {
			return reverseRoute(des), true
		}
	}
	return nil, false
}

// StoreRoute forced表示所有道路等级都已放开才找到
func (c *Community) StoreRoute(a, b int32, des []world.DirectedEdge, forced bool) {
	if forced {
		c.forcedRoutes.Store([2]int32{a, b}, slices.Clone(des))
		return
	}
	c.routes.Store([2]int32{a, b}, slices.Clone(des))
}

// CachedRoutes 两类缓存的条目数
func (c *Community) CachedRoutes() (normal, forced int) {
	return c.routes.Size(), c.forcedRoutes.Size()
}

func (c *Community) CachedHeuristic(a, b int32) (float64, bool) {
	return c.heuristics.Load([2]int32{a, b})
}

func (c *Community) StoreHeuristic(a, b int32, v float64) {
	c.heuristics.Store([2]int32{a, b}, v)
}
