package world_test

import (
	"testing"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainWorld(t *testing.T) *world.World {
	w, err := world.New(worldgen.Grid(worldgen.Plain(5, 5, 100)), config.Default())
	require.NoError(t, err)
	return w
}

func TestNewRejectsBadData(t *testing.T) {
	_, err := world.New(&world.Dataset{}, config.Default())
	assert.ErrorIs(t, err, world.ErrEmptyDataset)

	ds := &world.Dataset{
		Nodes: []world.NodeRecord{{ID: 1}},
		Edges: []world.EdgeRecord{{ID: 1, From: 1, To: 2}},
	}
	_, err = world.New(ds, config.Default())
	assert.ErrorIs(t, err, world.ErrDanglingEdge)
}

func TestShortestPathGrid(t *testing.T) {
	w := plainWorld(t)
	des, cost := w.ShortestPath(0, 24)
	assert.Equal(t, 800.0, cost)
	assert.Len(t, des, 8)
	r := world.NewRoute(0, 24, des)
	assert.True(t, r.Contiguous())
	assert.Equal(t, 800.0, r.Length(w))
	assert.Len(t, r.Nodes, 9)

	des2, cost2 := w.ShortestPathAvoiding(0, 24, nil)
	assert.Equal(t, 800.0, cost2)
	assert.Len(t, des2, 8)
}

func TestShortestPathAvoiding(t *testing.T) {
	w := plainWorld(t)
	// 封住节点0的两条出边之一，仍然有等长路径
	first, ok := w.EdgeBetween(0, 1)
	require.True(t, ok)
	des, cost := w.ShortestPathAvoiding(0, 24, func(d world.DirectedEdge) bool { return d.Edge == first.ID })
	assert.Equal(t, 800.0, cost)
	assert.NotEqual(t, first.ID, des[0].Edge)
}

func TestDualDeflection(t *testing.T) {
	w := plainWorld(t)
	a, _ := w.EdgeBetween(0, 1)
	b, _ := w.EdgeBetween(1, 2)
	c, _ := w.EdgeBetween(1, 6)
	for _, turn := range w.Turns(a.ID) {
		switch turn.To {
		case b.ID:
			assert.InDelta(t, 0, turn.Deflection, 1e-9)
			assert.Equal(t, int32(1), turn.Junction)
		case c.ID:
			assert.InDelta(t, 90, turn.Deflection, 1e-9)
		}
	}
	assert.Equal(t, int32(1), w.PrimalJunction(a.ID, c.ID))
	assert.Equal(t, world.NO_NODE, w.PrimalJunction(a.ID, a.ID))

	des, ok := w.DualPathToDirected(0, []int32{a.ID, c.ID})
	require.True(t, ok)
	assert.Equal(t, int32(6), des[1].To)
	_, ok = w.DualPathToDirected(5, []int32{a.ID})
	assert.False(t, ok)
}

func TestIslands(t *testing.T) {
	w := plainWorld(t)
	all := world.NewSet()
	for _, e := range w.Edges() {
		all.Add(e.ID)
	}
	assert.Len(t, w.Islands(all), 1)

	// 两个不相连的角
	a, _ := w.EdgeBetween(0, 1)
	b, _ := w.EdgeBetween(23, 24)
	part := world.NewSet(a.ID, b.ID)
	assert.Len(t, w.Islands(part), 2)
	merged := w.MergeIslands(part)
	assert.Len(t, w.Islands(merged), 1)
	assert.True(t, merged.Has(a.ID))
	assert.True(t, merged.Has(b.ID))
}

func TestIndexedLine(t *testing.T) {
	w := plainWorld(t)
	de, ok := w.DirectedEdgeBetween(1, 0)
	require.True(t, ok)
	l := w.IndexedLine(de)
	assert.Equal(t, 100.0, l.Length())
	assert.Equal(t, orb.Point{100, 0}, l.ExtractPoint(0))
	assert.Equal(t, orb.Point{75, 0}, l.ExtractPoint(25))
	assert.Equal(t, orb.Point{0, 0}, l.ExtractPoint(500))
	assert.Same(t, l, w.IndexedLine(de))
}

func TestViewField(t *testing.T) {
	v := world.NewViewField(orb.Point{0, 0}, orb.Point{100, 0}, 70, 0)
	assert.True(t, v.Contains(orb.Point{50, 5}))
	assert.False(t, v.Contains(orb.Point{-10, 0}))

	d, ok := v.Intersection(orb.LineString{{60, -100}, {60, 100}})
	require.True(t, ok)
	assert.InDelta(t, 60, d, 1e-6)
	_, ok = v.Intersection(orb.LineString{{-60, -100}, {-60, 100}})
	assert.False(t, ok)
}

func TestRouteReset(t *testing.T) {
	w := plainWorld(t)
	des, _ := w.ShortestPath(0, 24)
	r := world.NewRoute(0, 24, des)
	r.Reset(des[:3])
	assert.Equal(t, des[2].To, r.Destination)
	assert.Len(t, r.Edges, 3)
	assert.True(t, r.Contiguous())
}

func TestSalientNodes(t *testing.T) {
	w, err := world.New(worldgen.Grid(worldgen.City(9, 9, 3)), config.Default())
	require.NoError(t, err)
	salient := w.SalientNodes(0.9)
	assert.NotEmpty(t, salient)
	// 网格的角点不会出现在任何最短路的中间
	assert.False(t, salient.Has(0))
	within := w.SalientNodesWithin(0, 80, 0.5)
	assert.NotEmpty(t, within)
}
