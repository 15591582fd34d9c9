package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/engine"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSimulation(t testing.TB) *engine.Simulation {
	cfg := config.Default()
	cfg.Simulation.NumAgents = 4
	cfg.Simulation.Workers = 2
	cfg.RouteChoice.MinTripDistance = 200
	cfg.RouteChoice.AvgTripDistance = 300
	cfg.RouteChoice.MaxTripDistance = 400
	cfg.Learning.MinWalkedRoutes = 2
	w, err := world.New(worldgen.Grid(worldgen.Plain(6, 6, 100)), cfg)
	require.NoError(t, err)
	sim, err := engine.New(context.Background(), w, nil, 1)
	require.NoError(t, err)
	return sim
}

func TestNewPath(t *testing.T) {
	p, err := NewPath("")
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPath("synthetic:30x20")
	require.NoError(t, err)
	assert.True(t, p.Synthetic())
	assert.Equal(t, 30, p.Width)
	assert.Equal(t, 20, p.Height)
	assert.Equal(t, "synthetic:30x20", p.String())

	file := filepath.Join(t.TempDir(), "city.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	p, err = NewPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, p.File)

	p, err = NewPath("sim.city")
	require.NoError(t, err)
	assert.True(t, p.Mongo())
	assert.Equal(t, "sim", p.DB)
	assert.Equal(t, "city", p.Coll)

	_, err = NewPath("not-a-locator")
	assert.ErrorIs(t, err, ErrInvalidLocator)
	_, err = NewPath("synthetic:big")
	assert.Error(t, err)
}

func TestNewOutputPath(t *testing.T) {
	p, err := NewOutputPath("out/flows.db")
	require.NoError(t, err)
	assert.Equal(t, "out/flows.db", p.File)
	p, err = NewOutputPath("sim.wayfinding")
	require.NoError(t, err)
	assert.Equal(t, "wayfinding", p.Coll)
	_, err = NewOutputPath("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidLocator)
}

func TestControlServer(t *testing.T) {
	server := NewControlServer()
	_, err := server.Status(context.Background(), connect.NewRequest(&StatusRequest{}))
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))

	sim := testSimulation(t)
	server.Attach(sim)
	mux := http.NewServeMux()
	server.Register(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	suspend := connect.NewClient[StatusRequest, engine.Status](
		ts.Client(), ts.URL+SUSPEND_PROCEDURE, connect.WithCodec(jsonCodec{}))
	res, err := suspend.CallUnary(context.Background(), connect.NewRequest(&StatusRequest{}))
	require.NoError(t, err)
	assert.True(t, res.Msg.Suspended)
	assert.Equal(t, 4, res.Msg.Agents)

	resume := connect.NewClient[StatusRequest, engine.Status](
		ts.Client(), ts.URL+RESUME_PROCEDURE, connect.WithCodec(jsonCodec{}))
	res, err = resume.CallUnary(context.Background(), connect.NewRequest(&StatusRequest{}))
	require.NoError(t, err)
	assert.False(t, res.Msg.Suspended)

	plan := connect.NewClient[PlanRouteRequest, PlanRouteResponse](
		ts.Client(), ts.URL+PLAN_ROUTE_PROCEDURE, connect.WithCodec(jsonCodec{}))
	a, _ := sim.Agent(0)
	route, err := plan.CallUnary(context.Background(), connect.NewRequest(&PlanRouteRequest{
		Agent: 0, Origin: a.Map().Home, Destination: a.Map().Work,
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, route.Msg.Edges)
	assert.Equal(t, a.Map().Home, route.Msg.Nodes[0])
	assert.Equal(t, a.Map().Work, route.Msg.Nodes[len(route.Msg.Nodes)-1])
	assert.Positive(t, route.Msg.Length)

	_, err = plan.CallUnary(context.Background(), connect.NewRequest(&PlanRouteRequest{Agent: 99}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	_, err = plan.CallUnary(context.Background(), connect.NewRequest(&PlanRouteRequest{Agent: 0, Origin: -1}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func FuzzPlanRoute(f *testing.F) {
	sim := testSimulation(f)
	server := NewControlServer()
	server.Attach(sim)
	f.Add(uint8(0), uint8(0), uint8(35))
	f.Add(uint8(3), uint8(7), uint8(7))

	// 构造随机请求
	f.Fuzz(func(t *testing.T, agentID, origin, destination uint8) {
		req := connect.NewRequest(&PlanRouteRequest{
			Agent:       int32(agentID % 4),
			Origin:      int32(origin % 36),
			Destination: int32(destination % 36),
		})
		res, err := server.PlanRoute(context.Background(), req)
		// 有且只有一个是nil
		assert.True(t, (res == nil) != (err == nil))
		if err != nil {
			return
		}
		if len(res.Msg.Nodes) > 0 {
			assert.Equal(t, req.Msg.Origin, res.Msg.Nodes[0])
			assert.Equal(t, req.Msg.Destination, res.Msg.Nodes[len(res.Msg.Nodes)-1])
		}
	})
}
