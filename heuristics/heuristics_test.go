package heuristics_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilities(t *testing.T) {
	assert.InDelta(t, 0.5, heuristics.ProbabilityDistance(0.6), 1e-9)
	assert.Less(t, heuristics.ProbabilityDistance(0), 0.11)
	assert.Greater(t, heuristics.ProbabilityDistance(1), 0.89)
	assert.InDelta(t, 0.3, heuristics.ProbabilityRegions(0.3), 1e-9)
	assert.InDelta(t, 0.7, heuristics.ProbabilityDistantLandmarks(0.3), 1e-9)
	assert.Equal(t, 1.0, heuristics.ProbabilityBarriers(0))
	assert.Equal(t, 0.0, heuristics.ProbabilityBarriers(1))
	assert.InDelta(t, 0.5/(0.5+math.Pow(0.5, 1.5)), heuristics.ProbabilityBarriers(0.5), 1e-9)

	assert.InDelta(t, 0.85, heuristics.LocalLandmarkThreshold(0), 1e-9)
	assert.InDelta(t, 0.25, heuristics.LocalLandmarkThreshold(1), 1e-9)
	for _, v := range []float64{0, 0.2, 0.5, 0.8, 1} {
		assert.GreaterOrEqual(t, heuristics.LocalLandmarkThreshold(v), 0.25)
	}
	assert.Equal(t, 0.95, heuristics.EasinessThreshold(-1))
	assert.InDelta(t, 0.3, heuristics.EasinessThreshold(1), 1e-9)
}

func TestAssignExpert(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	const n = 2000
	distance := 0
	for i := 0; i < n; i++ {
		tr := heuristics.Assign(1, rng)
		// 两种最小化的概率都不超过0.9，仍会使用环境要素
		require.False(t, tr.Minimising())
		assert.True(t, tr.UsingElements())
		assert.True(t, tr.Regions)
		assert.False(t, tr.DistantLandmarks)
		assert.Equal(t, heuristics.SUBGOAL_LOCAL_LANDMARKS, tr.Subgoal)
		if tr.Local == heuristics.ROAD_DISTANCE {
			distance++
		}
	}
	assert.InDelta(t, heuristics.ProbabilityDistance(1), float64(distance)/n, 0.03)
	assert.InDelta(t, 0.25, heuristics.Assign(1, rng).LocalThreshold, 1e-9)
}

func TestAssignFrequencies(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 3))
	const n = 4000
	v := 0.4
	distance, regions, distant, barriers := 0, 0, 0, 0
	for i := 0; i < n; i++ {
		tr := heuristics.Assign(v, rng)
		require.False(t, tr.Minimising())
		if tr.Local == heuristics.ROAD_DISTANCE {
			distance++
		}
		if tr.Regions {
			regions++
		}
		if tr.DistantLandmarks {
			distant++
		}
		if tr.Subgoal == heuristics.SUBGOAL_BARRIERS {
			barriers++
		}
		assert.NotEqual(t, heuristics.SUBGOAL_NONE, tr.Subgoal)
	}
	assert.InDelta(t, heuristics.ProbabilityDistance(v), float64(distance)/n, 0.03)
	assert.InDelta(t, heuristics.ProbabilityRegions(v), float64(regions)/n, 0.03)
	assert.InDelta(t, heuristics.ProbabilityDistantLandmarks(v), float64(distant)/n, 0.03)
	assert.InDelta(t, heuristics.ProbabilityBarriers(v), float64(barriers)/n, 0.03)
}

func TestFromPopulation(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewPCG(4, 5))
	const n = 3000
	using := 0
	for i := 0; i < n; i++ {
		tr := heuristics.FromPopulation(cfg, rng)
		assert.Equal(t, cfg.RouteChoice.LocalLandmarkThresholdCommunity, tr.LocalThreshold)
		if tr.Minimising() {
			assert.Zero(t, tr.Barriers)
			continue
		}
		using++
		// 默认人群偏好自然屏障并回避割裂性屏障
		assert.True(t, tr.Barriers.Has(heuristics.PREFER_NATURAL))
		assert.True(t, tr.Barriers.Has(heuristics.AVOID_SEVERING))
		assert.InDelta(t, 0.51, tr.NaturalMean, 1e-9)
		assert.InDelta(t, 1.53, tr.SeveringMean, 1e-9)
	}
	assert.InDelta(t, cfg.Population.ProbUsingElements, float64(using)/n, 0.05)
}

func TestSkewNormal(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 7))
	left := make([]float64, 0, 5000)
	right := make([]float64, 0, 5000)
	for i := 0; i < 5000; i++ {
		left = append(left, heuristics.SkewNormal(rng, 1, 0.1, -4))
		right = append(right, heuristics.SkewNormal(rng, 1, 0.1, 4))
	}
	ml, _ := stats.Mean(left)
	mr, _ := stats.Mean(right)
	assert.Less(t, ml, 1.0)
	assert.Greater(t, mr, 1.0)
	assert.Equal(t, 2.0, heuristics.SkewNormal(rng, 2, 0, 4))
	assert.Equal(t, 2.0, heuristics.Normal(rng, 2, 0))
}

func TestDefine(t *testing.T) {
	w, err := world.New(worldgen.Grid(worldgen.City(9, 9, 7)), config.Default())
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(8, 9))
	m, err := cognition.NewCognitiveMap(cognition.NewCommunity(w), rng)
	require.NoError(t, err)
	m.Form()

	// 尚无记忆栅格时按人群概率
	h := heuristics.New(m, true, rng)
	tr := h.Define(m.Home, m.Work)
	assert.Zero(t, h.Vividness())
	assert.Equal(t, w.Config().RouteChoice.LocalLandmarkThresholdCommunity, tr.LocalThreshold)
	assert.Equal(t, tr, h.Traits())
	assert.True(t, h.Learner())
}
