package router_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/router"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func formedMap(t testing.TB, ds *world.Dataset, cfg *config.Config, seed uint64) *cognition.CognitiveMap {
	w, err := world.New(ds, cfg)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	m, err := cognition.NewCognitiveMap(cognition.NewCommunity(w), rng)
	require.NoError(t, err)
	m.Form()
	return m
}

func planner(m *cognition.CognitiveMap, seed uint64) *router.Planner {
	rng := rand.New(rand.NewPCG(seed, 17))
	return router.NewPlanner(m, heuristics.New(m, false, rng), rng)
}

var (
	distanceOnly = heuristics.Traits{OnlyMinimising: heuristics.ROAD_DISTANCE}
	angularOnly  = heuristics.Traits{OnlyMinimising: heuristics.ANGULAR_CHANGE}
)

// 各点之间不重复经过节点、首尾相接
func assertSimpleRoute(t *testing.T, r *world.Route) {
	t.Helper()
	assert.True(t, r.Contiguous(), "route %d->%d not contiguous: %v", r.Origin, r.Destination, r.DirectedEdges)
	assert.Len(t, lo.Uniq(r.Nodes), len(r.Nodes), "route %d->%d revisits nodes", r.Origin, r.Destination)
}

func TestGridCornerToCorner(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 1)
	r, err := planner(m, 1).Plan(0, 24, distanceOnly)
	require.NoError(t, err)
	assert.InDelta(t, 800, r.Length(m.World()), 1e-6)
	assert.Len(t, r.DirectedEdges, 8)
	assertSimpleRoute(t, r)

	s := router.NewSearcher(m, distanceOnly, 24, rand.New(rand.NewPCG(1, 2)))
	des, cost := s.RoadDistance(0, 24, nil)
	assert.InDelta(t, 800, cost, 1e-6)
	assert.Len(t, des, 8)
}

func TestAngularChangeGrid(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 2)
	s := router.NewSearcher(m, angularOnly, 24, rand.New(rand.NewPCG(2, 3)))
	des, cost := s.AngularChange(0, 24, nil)
	require.NotNil(t, des)
	// 网格上最少只需转一次弯
	assert.InDelta(t, 90, cost, 1e-6)
	r := world.NewRoute(0, 24, des)
	assertSimpleRoute(t, r)
	assert.InDelta(t, 800, r.Length(m.World()), 1e-6)

	// 公共相邻节点
	des, cost = s.AngularChange(0, 6, nil)
	assert.Len(t, des, 2)
	assert.InDelta(t, 90, cost, 1e-6)
	des, cost = s.AngularChange(0, 2, nil)
	assert.Len(t, des, 2)
	assert.InDelta(t, 0, cost, 1e-6)
}

// 不在意屏障、也不用环境要素时不加感知噪声，代价等于最短路
func TestNoActiveTraitsKeepShortestCost(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 1)
	traits := heuristics.Traits{Local: heuristics.ROAD_DISTANCE}
	for seed := range uint64(20) {
		s := router.NewSearcher(m, traits, 24, rand.New(rand.NewPCG(seed, 7)))
		des, cost := s.RoadDistance(0, 24, nil)
		assert.Len(t, des, 8)
		assert.InDelta(t, 800, cost, 1e-6, "seed %d", seed)
	}
}

// 直接相连的边没有转弯，转角代价为0
func TestAngularDirectEdgeHasNoTurn(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 1)
	traits := heuristics.Traits{Local: heuristics.ANGULAR_CHANGE, DistantLandmarks: true}
	s := router.NewSearcher(m, traits, 24, rand.New(rand.NewPCG(5, 6)))
	des, cost := s.AngularChange(0, 1, nil)
	assert.Len(t, des, 1)
	assert.Zero(t, cost)
	_, cost = router.NewSearcher(m, angularOnly, 24, rand.New(rand.NewPCG(5, 6))).AngularChange(0, 1, nil)
	assert.Zero(t, cost)
}

func severingDataset(t *testing.T, a, b int32) *world.Dataset {
	ds := worldgen.Grid(worldgen.Plain(5, 5, 100))
	e, ok := lo.Find(ds.Edges, func(e world.EdgeRecord) bool {
		return (e.From == a && e.To == b) || (e.From == b && e.To == a)
	})
	require.True(t, ok)
	ds.Barriers = append(ds.Barriers, world.BarrierRecord{ID: 0, Type: "road", Edges: []int32{e.ID}})
	return ds
}

func TestSeveringBarrierMultiplier(t *testing.T) {
	cfg := config.Default()
	cfg.Search.NeutralPerceptionSD = 0
	traits := heuristics.Traits{
		Local:        heuristics.ROAD_DISTANCE,
		Barriers:     heuristics.AVOID_SEVERING,
		SeveringMean: 1.5,
		SeveringSD:   0,
	}

	// 1-2是0到2唯一的最短路上的边，绕行需要400
	m := formedMap(t, severingDataset(t, 1, 2), cfg, 3)
	require.True(t, m.KnownBarriers().Has(0))
	s := router.NewSearcher(m, traits, 2, rand.New(rand.NewPCG(3, 4)))
	des, cost := s.RoadDistance(0, 2, nil)
	assert.InDelta(t, 100+100*1.5, cost, 1e-9)
	assert.Equal(t, []int32{1, 2}, lo.Map(des, func(d world.DirectedEdge, _ int) int32 { return d.To }))

	// 有等长的替代路线时绕开屏障
	m = formedMap(t, severingDataset(t, 0, 1), cfg, 4)
	s = router.NewSearcher(m, traits, 24, rand.New(rand.NewPCG(4, 5)))
	des, cost = s.RoadDistance(0, 24, nil)
	assert.InDelta(t, 800, cost, 1e-9)
	e, _ := m.World().EdgeBetween(0, 1)
	assert.False(t, lo.ContainsBy(des, func(d world.DirectedEdge) bool { return d.Edge == e.ID }))
}

// 不带偏置的参照最短路，edges为nil时使用全路网
func referenceDistance(w *world.World, edges world.Set, o, d int32) float64 {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for _, e := range w.Edges() {
		if edges != nil && !edges.Has(e.ID) {
			continue
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), e.Length))
	}
	if g.Node(int64(o)) == nil {
		return math.Inf(0)
	}
	shortest := path.DijkstraFrom(simple.Node(o), g)
	return shortest.WeightTo(int64(d))
}

func TestBiasedRoutesNotShorter(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 5)
	w := m.World()
	p := planner(m, 5)
	rng := rand.New(rand.NewPCG(5, 6))
	known := m.KnownNetwork()
	nodes := known.Nodes.Sorted()
	for i := 0; i < 30; i++ {
		o := nodes[rng.IntN(len(nodes))]
		d := nodes[rng.IntN(len(nodes))]
		if o == d {
			continue
		}

		// 不带偏置时等于已知网络上的最短路
		r, err := p.Plan(o, d, distanceOnly)
		require.NoError(t, err)
		assert.InDelta(t, referenceDistance(w, known.Edges, o, d), r.Length(w), 1e-6, "%d->%d", o, d)

		r, err = p.Plan(o, d, heuristics.Assign(rng.Float64(), rng))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.Length(w), referenceDistance(w, nil, o, d)-1e-6, "%d->%d", o, d)
		assertSimpleRoute(t, r)
	}
}

func TestStrategies(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 6)
	w := m.World()
	p := planner(m, 6)
	base := heuristics.Assign(0.5, rand.New(rand.NewPCG(6, 7)))
	cases := map[string]heuristics.Traits{
		"barriers":  {Local: heuristics.ROAD_DISTANCE, Subgoal: heuristics.SUBGOAL_BARRIERS},
		"landmarks": {Local: heuristics.ANGULAR_CHANGE, Subgoal: heuristics.SUBGOAL_LOCAL_LANDMARKS},
		"regions": {
			Local: heuristics.ROAD_DISTANCE, Subgoal: heuristics.SUBGOAL_LOCAL_LANDMARKS, Regions: true,
		},
		"regions+barriers": {Local: heuristics.ANGULAR_CHANGE, Subgoal: heuristics.SUBGOAL_BARRIERS, Regions: true},
		"distant":          {Local: heuristics.ROAD_DISTANCE, DistantLandmarks: true},
	}
	for name, traits := range cases {
		traits.LocalThreshold = base.LocalThreshold
		traits.GlobalWeightDistance, traits.GlobalWeightAngular = base.GlobalWeightDistance, base.GlobalWeightAngular
		traits.EasinessThreshold, traits.EasinessThresholdRegion = 0.95, 0.85
		t.Run(name, func(t *testing.T) {
			// 左下到右上，跨越河流与铁路
			for _, od := range [][2]int32{{0, 80}, {9, 71}, {72, 8}} {
				r, err := p.Plan(od[0], od[1], traits)
				require.NoError(t, err)
				assert.Equal(t, od[0], r.Origin)
				assert.Equal(t, od[1], r.Destination)
				assertSimpleRoute(t, r)
				assert.Positive(t, r.Length(w))
			}
		})
	}
}

func TestRegionSequence(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 7)
	w := m.World()
	traits := heuristics.Traits{Local: heuristics.ROAD_DISTANCE, Regions: true}
	trip := router.NewTrip(m, traits, 0, 80)
	seq := trip.RegionSequence()
	require.Len(t, seq, 4)
	assert.Equal(t, int32(0), seq[0])
	assert.Equal(t, int32(80), seq[3])
	// 出口与入口相邻且分属两侧区域
	assert.Equal(t, w.Node(0).Region, w.Node(seq[1]).Region)
	assert.Equal(t, w.Node(80).Region, w.Node(seq[2]).Region)
	_, ok := w.EdgeBetween(seq[1], seq[2])
	assert.True(t, ok)

	// 同一区域内没有区域序列
	assert.Nil(t, router.NewTrip(m, traits, 0, 9).RegionSequence())
}

func TestBarrierSequence(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 8)
	trip := router.NewTrip(m, heuristics.Traits{Subgoal: heuristics.SUBGOAL_BARRIERS}, 0, 80)
	seq := trip.BarrierSequence()
	require.GreaterOrEqual(t, len(seq), 2)
	assert.Equal(t, int32(0), seq[0])
	assert.Equal(t, int32(80), seq[len(seq)-1])
	assert.Len(t, lo.Uniq(seq), len(seq))
}

func TestOnRouteMarks(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 9)
	w := m.World()
	traits := heuristics.Traits{Subgoal: heuristics.SUBGOAL_LOCAL_LANDMARKS, LocalThreshold: 0.3, EasinessThreshold: 0.99}
	trip := router.NewTrip(m, traits, 0, 80)
	seq := trip.OnRouteMarks()
	assert.Equal(t, int32(0), seq[0])
	assert.Equal(t, int32(80), seq[len(seq)-1])
	assert.Equal(t, seq[1:len(seq)-1], trip.Marks())
	for _, mark := range trip.Marks() {
		_, adjacent := w.EdgeBetween(0, mark)
		assert.False(t, adjacent)
		assert.True(t, m.KnownNodes().Has(mark))
	}
	assert.Len(t, lo.Uniq(seq), len(seq))

	e := trip.WayfindingEasiness(80)
	assert.InDelta(t, 1, e, 1e-9)
	assert.Less(t, trip.WayfindingEasiness(0), e)
}

func TestStitch(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 10)
	s := router.NewSearcher(m, distanceOnly, 24, rand.New(rand.NewPCG(10, 11)))

	des, err := router.Stitch([]int32{0, 12, 4, 24}, s.RoadDistance, 8)
	require.NoError(t, err)
	assertSimpleRoute(t, world.NewRoute(0, 24, des))

	// 已经过的途经点：退回而不是绕圈
	des, err = router.Stitch([]int32{0, 2, 4, 2, 24}, s.RoadDistance, 8)
	require.NoError(t, err)
	assertSimpleRoute(t, world.NewRoute(0, 24, des))

	// 不可达的中间点被跳过
	unreachable := func(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64) {
		if d == 12 {
			return nil, 0
		}
		return s.RoadDistance(o, d, avoid)
	}
	des, err = router.Stitch([]int32{0, 12, 24}, unreachable, 8)
	require.NoError(t, err)
	assertSimpleRoute(t, world.NewRoute(0, 24, des))
	_, err = router.Stitch([]int32{0, 12, 24}, unreachable, 0)
	assert.True(t, errors.Is(err, router.ErrNoRoute))
	_, err = router.Stitch([]int32{0, 12}, unreachable, 8)
	assert.True(t, errors.Is(err, router.ErrNoRoute))

	_, err = router.Stitch(nil, s.RoadDistance, 8)
	assert.True(t, errors.Is(err, router.ErrEmptySequence))
}

func TestRemoveCycles(t *testing.T) {
	des := []world.DirectedEdge{
		{Edge: 1, From: 0, To: 1},
		{Edge: 2, From: 1, To: 2},
		{Edge: 3, From: 2, To: 3},
		{Edge: 4, From: 3, To: 1},
		{Edge: 5, From: 1, To: 4},
	}
	out := router.RemoveCycles(0, des)
	assert.Equal(t, []int32{1, 5}, lo.Map(out, func(d world.DirectedEdge, _ int) int32 { return d.Edge }))
}

func TestSameOriginDestination(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default(), 11)
	r, err := planner(m, 11).PlanRoute(7, 7)
	require.NoError(t, err)
	assert.Empty(t, r.DirectedEdges)
	assert.Zero(t, r.Length(m.World()))
	assert.True(t, r.Contiguous())

	_, err = planner(m, 11).Plan(7, 999, distanceOnly)
	assert.True(t, errors.Is(err, router.ErrUnknownNode))
}

func TestGlobalLandmarkness(t *testing.T) {
	m := formedMap(t, worldgen.Grid(worldgen.City(9, 9, 7)), config.Default(), 12)
	c := m.Community()
	for _, n := range []int32{0, 8, 40} {
		v := router.GlobalLandmarkness(c, n, 80)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		cached, ok := c.CachedHeuristic(n, 80)
		assert.True(t, ok)
		assert.Equal(t, v, cached)
	}
}

func BenchmarkPlan(b *testing.B) {
	m := formedMap(b, worldgen.Grid(worldgen.City(20, 20, 3)), config.Default(), 13)
	p := planner(m, 13)
	rng := rand.New(rand.NewPCG(13, 14))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o, d := int32(rng.IntN(400)), int32(rng.IntN(400))
		_, _ = p.Plan(o, d, heuristics.Assign(rng.Float64(), rng))
	}
}
