package worldgen_test

import (
	"testing"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainGrid(t *testing.T) {
	ds := worldgen.Grid(worldgen.Plain(5, 5, 100))
	assert.Len(t, ds.Nodes, 25)
	assert.Len(t, ds.Edges, 40)
	assert.Empty(t, ds.Buildings)
	assert.Empty(t, ds.Barriers)
}

func TestCityGrid(t *testing.T) {
	cfg := worldgen.City(8, 6, 7)
	ds := worldgen.Grid(cfg)
	assert.Len(t, ds.Buildings, 7*5)
	assert.Len(t, ds.Barriers, 2)

	w, err := world.New(ds, config.Default())
	require.NoError(t, err)
	assert.Len(t, w.Regions(), 2)
	// 河流沿中间一列的竖向边
	river := w.Barrier(0)
	require.NotNil(t, river)
	assert.Len(t, river.Edges, 5)
	for _, id := range river.Edges {
		e := w.Edge(id)
		assert.Contains(t, e.Water, int32(0))
		assert.Contains(t, e.PositiveBarriers, int32(0))
	}
	rail := w.Barrier(1)
	require.NotNil(t, rail)
	for _, id := range rail.Edges {
		assert.Contains(t, w.Edge(id).NegativeBarriers, int32(1))
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := worldgen.ParseSize("12x9")
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 9, h)
	_, _, err = worldgen.ParseSize("12")
	assert.ErrorIs(t, err, worldgen.ErrInvalidSize)
	_, _, err = worldgen.ParseSize("1x9")
	assert.ErrorIs(t, err, worldgen.ErrInvalidSize)
}
