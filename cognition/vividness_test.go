package cognition_test

import (
	"math"
	"testing"

	"git.fiblab.net/sim/wayfinding/cognition"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disc(c orb.Point, r float64) orb.MultiPolygon {
	ring := orb.Ring{}
	for i := 0; i < 64; i++ {
		a := float64(i) / 64 * 2 * math.Pi
		ring = append(ring, orb.Point{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return orb.MultiPolygon{{ring}}
}

func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func newGrid() *cognition.VividnessGrid {
	return cognition.NewVividnessGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, 10)
}

func TestGridGrowsAndKeepsValues(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(orb.MultiPolygon{{square(-1, -1, 9, 9)}}, 1)
	assert.Equal(t, 1.0, g.Value(orb.Point{5, 5}))

	// 向负方向扩展后原有格子不变
	g.AddVisibilitySpace(orb.MultiPolygon{{square(-101, -101, -91, -91)}}, 2)
	assert.Equal(t, 1.0, g.Value(orb.Point{5, 5}))
	assert.Equal(t, 2.0, g.Value(orb.Point{-95, -95}))
	assert.Equal(t, 0.0, g.Value(orb.Point{-45, -45}))
	assert.Equal(t, 0.0, g.Value(orb.Point{1e6, 0}))
}

func TestCollageMonotonic(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 50), 1)
	g.AddVisibilitySpace(disc(orb.Point{30, 0}, 50), 2)
	g.AddVisibilitySpace(disc(orb.Point{60, 0}, 50), 0.5)

	thresholds := []float64{0.1, 0.5, 1, 2, 3, 3.5}
	prev := g.UpdateCollage(thresholds[0])
	for _, th := range thresholds[1:] {
		cur := g.UpdateCollage(th)
		assert.LessOrEqual(t, cur.Len(), prev.Len())
		for _, p := range cur.Cells() {
			assert.True(t, prev.Contains(orb.Point{p[0] + 1, p[1] + 1}), "cell %v lost at lower threshold", p)
		}
		prev = cur
	}
	assert.Equal(t, 0, g.UpdateCollage(100).Len())
}

func TestDecayZeroElapsed(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 50), 1.5)
	before := g.Snapshot()
	changed := g.ApplyDecay(0.3, 0, 14, g.PercentileThreshold(0.15))
	assert.False(t, changed)
	assert.Equal(t, before, g.Snapshot())
}

func TestDecayHalfLife(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 50), 1)
	before := g.Snapshot()
	g.ApplyDecay(1, 14*86400, 14, 0)
	after := g.Snapshot()
	nonzero := 0
	for i, v := range before {
		if v == 0 {
			assert.Zero(t, after[i])
			continue
		}
		nonzero++
		assert.InDelta(t, v*0.5, after[i], 1e-6)
	}
	assert.Positive(t, nonzero)

	// 记忆能力越低遗忘越快
	assert.Less(t, cognition.DecayFactor(0, 86400, 14), cognition.DecayFactor(1, 86400, 14))
}

func TestDecayCrossesThreshold(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 50), 1)
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 20), 1)
	th := g.PercentileThreshold(0.15)
	assert.Equal(t, 1.0, th)
	assert.True(t, g.ApplyDecay(1, 86400, 14, th))
	// 远低于阈值时不再触发
	assert.False(t, g.ApplyDecay(1, 86400, 14, 100))
}

func TestVividnessBetween(t *testing.T) {
	g := newGrid()
	assert.Zero(t, g.VividnessBetween(orb.Point{0, 0}, orb.Point{100, 0}, 40))
	g.AddVisibilitySpace(disc(orb.Point{0, 0}, 50), 0.8)
	// 只平均正值格子
	assert.InDelta(t, 0.8, g.VividnessBetween(orb.Point{0, 0}, orb.Point{500, 0}, 40), 1e-6)

	v1 := g.EffectiveVividness(1, 0.5, 0.2, 0.7)
	assert.InDelta(t, 0.7*0.2+0.3*0.5, v1, 1e-9)
	// 只读，不改变平滑状态
	assert.Equal(t, v1, g.EffectiveVividness(1, 0.5, 0.2, 0.7))
	assert.Zero(t, g.Smoothed())
	g.Observe(1, 0.2)
	assert.InDelta(t, 0.2, g.Smoothed(), 1e-9)
	assert.Greater(t, g.EffectiveVividness(1, 0.5, 0.2, 0.7), v1)
	assert.LessOrEqual(t, g.EffectiveVividness(5, 1, 0.2, 0.7), 1.0)
}

func TestCollagePolygons(t *testing.T) {
	g := newGrid()
	// 5x5格子挖去中间2x2
	outer := square(-1, -1, 49, 49)
	hole := square(9, 9, 21, 21)
	hole.Reverse()
	g.AddVisibilitySpace(orb.MultiPolygon{{outer, hole}}, 1)
	c := g.UpdateCollage(1)
	assert.Equal(t, 21, c.Len())
	assert.Equal(t, 2100.0, c.Area())
	assert.True(t, c.Contains(orb.Point{5, 5}))
	assert.False(t, c.Contains(orb.Point{15, 15}))

	polys := c.Polygons()
	require.Len(t, polys, 1)
	require.Len(t, polys[0], 2)
	assert.Equal(t, orb.CCW, polys[0][0].Orientation())
	assert.Equal(t, orb.CW, polys[0][1].Orientation())
	assert.InDelta(t, 2500.0, math.Abs(planar.Area(polys[0][0])), 1e-6)
	assert.InDelta(t, 400.0, math.Abs(planar.Area(polys[0][1])), 1e-6)
	// 共线顶点已合并
	assert.Len(t, polys[0][0], 5)
}

func TestCollageDiagonalCells(t *testing.T) {
	g := newGrid()
	g.AddVisibilitySpace(orb.MultiPolygon{{square(-1, -1, 1, 1)}, {square(9, 9, 11, 11)}}, 1)
	c := g.UpdateCollage(1)
	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.Polygons(), 2)
}
