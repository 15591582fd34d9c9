package engine_test

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"git.fiblab.net/sim/wayfinding/agent"
	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/engine"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 6x6网格上的小规模模拟：一天288步
func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.NumAgents = 4
	cfg.Simulation.Days = 1
	cfg.Simulation.Workers = 2
	cfg.Simulation.MetersPerDayPerPerson = 3000
	cfg.Time.StepDuration = 300
	cfg.Time.ReleaseAgentsEverySteps = 2
	cfg.RouteChoice.MinTripDistance = 200
	cfg.RouteChoice.AvgTripDistance = 300
	cfg.RouteChoice.MaxTripDistance = 400
	cfg.Learning.MinWalkedRoutes = 2
	return cfg
}

func smallWorld(t *testing.T, cfg *config.Config) *world.World {
	w, err := world.New(worldgen.Grid(worldgen.Plain(6, 6, 100)), cfg)
	require.NoError(t, err)
	return w
}

func TestIsLearner(t *testing.T) {
	half := lo.Filter([]int32{0, 1, 2, 3, 4, 5}, func(id int32, _ int) bool { return engine.IsLearner(id, 0.5) })
	assert.Equal(t, []int32{0, 2, 4}, half)
	for id := int32(0); id < 10; id++ {
		assert.True(t, engine.IsLearner(id, 1))
		assert.False(t, engine.IsLearner(id, 0))
	}
}

func TestPopulateDeterministic(t *testing.T) {
	cfg := smallConfig()
	w := smallWorld(t, cfg)
	homes := func() []int32 {
		agents, err := engine.Populate(context.Background(), cognition.NewCommunity(w), agent.NewOccupancy(), nil)
		require.NoError(t, err)
		require.Len(t, agents, cfg.Agents())
		for i, a := range agents {
			assert.Equal(t, int32(i), a.ID)
			assert.Equal(t, engine.IsLearner(a.ID, cfg.Population.LearnerShare), a.Learner)
			if a.Learner {
				assert.Len(t, a.Learning().Routes(), cfg.Learning.MinWalkedRoutes)
			}
		}
		return lo.Map(agents, func(a *agent.Agent, _ int) int32 { return a.Map().Home })
	}
	assert.Equal(t, homes(), homes())

	cfg.Simulation.NumAgents = 0
	cfg.Simulation.Population = 0
	_, err := engine.Populate(context.Background(), cognition.NewCommunity(w), agent.NewOccupancy(), nil)
	assert.ErrorIs(t, err, engine.ErrNoAgents)
}

func TestSlotSharesCoverTheDay(t *testing.T) {
	cfg := config.Default()
	r := engine.NewReleaseManager(cfg, rand.New(rand.NewPCG(1, 2)))
	total := 0.0
	for tick := 0; tick < cfg.StepsPerDay(); tick += cfg.Time.ReleaseAgentsEverySteps {
		total += r.SlotShare(int64(tick))
	}
	assert.InDelta(t, 1, total, 1e-9)
	// 凌晨的时段少于傍晚
	assert.Less(t, r.SlotShare(int64(cfg.MinutesToSteps(3*60))), r.SlotShare(int64(cfg.MinutesToSteps(18*60))))
}

func TestFlowHandler(t *testing.T) {
	cfg := smallConfig()
	w := smallWorld(t, cfg)
	flows := engine.NewFlowHandler(w, true)
	agents, err := engine.Populate(context.Background(), cognition.NewCommunity(w), agent.NewOccupancy(), flows)
	require.NoError(t, err)

	des, _ := w.ShortestPath(0, 3)
	require.Len(t, des, 3)
	r := world.NewRoute(0, 3, des)
	flows.TripCompleted(agents[0], r)
	flows.TripCompleted(agents[0], r)
	flows.TripCompleted(agents[1], r)
	assert.Equal(t, int64(2), flows.Volume(r.Edges[0], agent.TAG_LEARNER))
	assert.Equal(t, int64(1), flows.Volume(r.Edges[0], agent.TAG_NOT_LEARNER))

	day := flows.EndDay(1, agents)
	assert.Equal(t, 1, day.Day)
	assert.Len(t, day.Volumes, 6)
	assert.Len(t, day.Trips, 3)
	assert.InDelta(t, 300, day.Trips[0].Length, 1e-9)
	assert.IsNonDecreasing(t, lo.Map(day.Volumes, func(c engine.CountRecord, _ int) int32 { return c.ID }))
	assert.NotEmpty(t, day.KnownEdges)
	known := lo.SumBy(day.KnownEdges, func(c engine.CountRecord) int64 { return c.Count })
	expected := lo.SumBy(agents, func(a *agent.Agent) int64 { return int64(len(a.Map().KnownNetwork().Edges)) })
	assert.Equal(t, expected, known)

	// 取出后清零
	assert.Zero(t, flows.Volume(r.Edges[0], agent.TAG_LEARNER))
	assert.Empty(t, flows.EndDay(2, agents).Trips)
}

func TestSimulationRunExportsSQLite(t *testing.T) {
	cfg := smallConfig()
	w := smallWorld(t, cfg)
	exporter, err := engine.OpenSQLite(filepath.Join(t.TempDir(), "flows.db"), 100)
	require.NoError(t, err)
	defer exporter.Close(context.Background())

	sim, err := engine.New(context.Background(), w, exporter, 1)
	require.NoError(t, err)
	require.NoError(t, sim.Run(context.Background()))

	st := sim.Status()
	assert.True(t, st.Finished)
	assert.Equal(t, int64(cfg.StepsPerDay()), st.Tick)
	assert.Equal(t, 1, st.Day)
	assert.Positive(t, st.MetersWalked)

	run := sim.RunInfo()
	trips, err := exporter.Trips(context.Background(), run, 1)
	require.NoError(t, err)
	assert.Positive(t, trips)
	volumes, err := exporter.Volumes(context.Background(), run, 1)
	require.NoError(t, err)
	require.NotEmpty(t, volumes)
	for _, v := range volumes {
		assert.Contains(t, []string{agent.TAG_LEARNER, agent.TAG_NOT_LEARNER}, v.Tag)
		assert.Positive(t, v.Count)
	}
	// 占用计数与行走中的代理一致
	assert.LessOrEqual(t, sim.Occupancy().Total(), st.Walking)
}

func TestSimulationCancelAndControl(t *testing.T) {
	cfg := smallConfig()
	sim, err := engine.New(context.Background(), smallWorld(t, cfg), nil, 2)
	require.NoError(t, err)

	sim.Suspend()
	assert.True(t, sim.Status().Suspended)
	sim.Resume()
	assert.False(t, sim.Status().Suspended)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sim.Run(ctx), context.Canceled)

	a, ok := sim.Agent(0)
	require.True(t, ok)
	route, _, err := sim.PlanFor(0, a.Map().Home, a.Map().Work)
	require.NoError(t, err)
	assert.True(t, route.Contiguous())
	_, _, err = sim.PlanFor(999, 0, 1)
	assert.ErrorIs(t, err, engine.ErrUnknownAgent)
}

// 按需规划只读代理的认知地图
func TestPlanForLeavesAgentMapUntouched(t *testing.T) {
	cfg := smallConfig()
	sim, err := engine.New(context.Background(), smallWorld(t, cfg), nil, 3)
	require.NoError(t, err)
	a, ok := sim.Agent(0)
	require.True(t, ok)
	require.True(t, a.Learner)
	m := a.Map()
	require.NotNil(t, m.Grid())

	smoothed := m.Grid().Smoothed()
	edges := m.KnownEdges().Clone()
	network := m.KnownNetwork()
	landmarks := m.KnownLocalLandmarks().Clone()
	for _, n := range sim.World().Nodes() {
		_, _, err := sim.PlanFor(a.ID, m.Home, n.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, smoothed, m.Grid().Smoothed())
	assert.Equal(t, edges, m.KnownEdges())
	assert.Same(t, network, m.KnownNetwork())
	assert.Equal(t, landmarks, m.KnownLocalLandmarks())
}
