package cognition_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cityCommunity(t *testing.T) *cognition.Community {
	w, err := world.New(worldgen.Grid(worldgen.City(9, 9, 7)), config.Default())
	require.NoError(t, err)
	return cognition.NewCommunity(w)
}

// 直接使用全路网最短路的规划器
type shortestPlanner struct{ w *world.World }

func (p shortestPlanner) PlanRoute(o, d int32) (*world.Route, error) {
	des, _ := p.w.ShortestPath(o, d)
	return world.NewRoute(o, d, des), nil
}

func TestCommunity(t *testing.T) {
	c := cityCommunity(t)
	w := c.World()
	assert.NotEmpty(t, c.RoadEdges[world.ROAD_PRIMARY])
	assert.NotEmpty(t, c.RoadEdges[world.ROAD_SECONDARY])
	for id := range c.RoadEdges[world.ROAD_PRIMARY] {
		assert.True(t, c.KnownEdges.Has(id))
	}
	// 河流是水体屏障，铁路不是社区已知屏障
	assert.True(t, c.KnownBarriers.Has(0))
	assert.False(t, c.KnownBarriers.Has(1))
	for id := range c.KnownEdges {
		e := w.Edge(id)
		assert.True(t, c.KnownNodes.Has(e.From))
		assert.True(t, c.KnownNodes.Has(e.To))
	}
}

func TestBuildKnownNetworkSingleIsland(t *testing.T) {
	c := cityCommunity(t)
	w := c.World()
	b := cognition.NewNetworkBuilder(c)
	a, _ := w.EdgeBetween(0, 1)
	z, _ := w.EdgeBetween(79, 80)
	net := b.Build(world.NewSet(a.ID, z.ID))
	assert.Len(t, w.Islands(net.Edges), 1)
	assert.True(t, net.HasEdge(a.ID))
	assert.True(t, net.HasEdge(z.ID))
	for id := range net.Edges {
		e := w.Edge(id)
		assert.True(t, net.HasNode(e.From))
		assert.True(t, net.HasNode(e.To))
		// 原始子网的每条边都在对偶子网中
		assert.True(t, net.DualNodes.Has(id))
	}
}

func TestMostKnownRouteCached(t *testing.T) {
	c := cityCommunity(t)
	w := c.World()
	b := cognition.NewNetworkBuilder(c)
	des, ok := b.MostKnownRoute(0, 80)
	require.True(t, ok)
	r := world.NewRoute(0, 80, des)
	assert.True(t, r.Contiguous())
	normal, forced := c.CachedRoutes()
	assert.Equal(t, 1, normal+forced)

	back, ok := b.MostKnownRoute(80, 0)
	require.True(t, ok)
	assert.True(t, world.NewRoute(80, 0, back).Contiguous())
	normal, forced = c.CachedRoutes()
	assert.Equal(t, 1, normal+forced)
	assert.Equal(t, r.Length(w), world.NewRoute(80, 0, back).Length(w))

	// 调用方修改结果不影响缓存
	cached, ok := b.MostKnownRoute(0, 80)
	require.True(t, ok)
	slices.Reverse(cached)
	cached[0] = world.DirectedEdge{}
	again, ok := b.MostKnownRoute(0, 80)
	require.True(t, ok)
	assert.Equal(t, des, again)
}

func TestFormCognitiveMap(t *testing.T) {
	c := cityCommunity(t)
	w := c.World()
	m, err := cognition.NewCognitiveMap(c, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.False(t, m.Formed())
	assert.NotEqual(t, m.Home, m.Work)
	assert.GreaterOrEqual(t, m.SpatialAbility, 0.0)
	assert.LessOrEqual(t, m.SpatialAbility, 1.0)

	m.Form()
	require.True(t, m.Formed())
	assert.True(t, m.KnownNodes().Has(m.Home))
	assert.True(t, m.KnownNodes().Has(m.Work))
	assert.True(t, m.IsRegionKnown(w.Node(m.Home).Region))
	assert.True(t, m.IsRegionKnown(w.Node(m.Work).Region))
	assert.Len(t, w.Islands(m.KnownNetwork().Edges), 1)
	assert.True(t, m.KnownBarriers().Has(0))

	// 尚未学习时只由空间能力决定
	v := m.EffectiveVividness(m.Home, m.Work)
	assert.InDelta(t, 0.3*m.SpatialAbility, v, 1e-9)
}

func TestIncrementalLearning(t *testing.T) {
	c := cityCommunity(t)
	w := c.World()
	rng := rand.New(rand.NewPCG(3, 4))
	m, err := cognition.NewCognitiveMap(c, rng)
	require.NoError(t, err)
	l := cognition.NewIncrementalLearning(m, rng)
	assert.ErrorIs(t, l.BuildBasicMemory(shortestPlanner{w}, 0), cognition.ErrNotFormed)

	m.Form()
	require.NoError(t, l.BuildBasicMemory(shortestPlanner{w}, 0))
	minRoutes := w.Config().Learning.MinWalkedRoutes
	assert.Len(t, l.Routes(), minRoutes)
	assert.Len(t, m.Traces(), minRoutes)
	require.NotNil(t, m.Grid())
	assert.Positive(t, m.Collage().Len())
	for _, id := range l.Routes()[0].Nodes {
		assert.True(t, m.KnownNodes().Has(id))
	}
	assert.Len(t, w.Islands(m.KnownNetwork().Edges), 1)

	props, ok := l.Memorability().Lookup(l.Routes()[0])
	require.True(t, ok)
	assert.Positive(t, props.Length)
	assert.GreaterOrEqual(t, props.Complexity, 0.0)
	assert.LessOrEqual(t, props.Complexity, 1.0)
	assert.True(t, props.VisitedLocations.Has(m.Home))

	des, _ := w.ShortestPath(0, 80)
	l.UpdateMemory(world.NewRoute(0, 80, des), 10)
	assert.Len(t, l.Routes(), minRoutes+1)
	assert.Positive(t, m.Grid().Value(w.Node(80).Point))

	// 一天的遗忘会让阈值上的格子跌破阈值
	assert.True(t, l.ApplyDecay(1, 86400))
	assert.Len(t, w.Islands(m.KnownNetwork().Edges), 1)
}
