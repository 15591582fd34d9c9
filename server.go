package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/wayfinding/engine"
	"github.com/samber/lo"
)

const (
	CONTROL_SERVICE_NAME = "wayfinding.v1.ControlService"

	SUSPEND_PROCEDURE    = "/" + CONTROL_SERVICE_NAME + "/Suspend"
	RESUME_PROCEDURE     = "/" + CONTROL_SERVICE_NAME + "/Resume"
	STATUS_PROCEDURE     = "/" + CONTROL_SERVICE_NAME + "/Status"
	PLAN_ROUTE_PROCEDURE = "/" + CONTROL_SERVICE_NAME + "/PlanRoute"
)

var ErrNoSimulation = errors.New("no simulation is running")

// jsonCodec 控制服务的消息为普通Go结构体，以JSON编解码
type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type StatusRequest struct{}

type PlanRouteRequest struct {
	Agent       int32 `json:"agent"`
	Origin      int32 `json:"origin"`
	Destination int32 `json:"destination"`
}

type PlanRouteResponse struct {
	Nodes            []int32 `json:"nodes,omitempty"`
	Edges            []int32 `json:"edges,omitempty"`
	VisitedLocations []int32 `json:"visited_locations,omitempty"`
	Length           float64 `json:"length"`
	Heuristics       string  `json:"heuristics,omitempty"`
}

// ControlServer 控制当前运行的模拟：暂停、恢复、查询状态、用某个代理的认知地图规划路线
type ControlServer struct {
	mu     sync.RWMutex
	sim    *engine.Simulation
	closed bool
}

func NewControlServer() *ControlServer {
	return &ControlServer{}
}

// Attach 切换到新的模拟（每个job一个）
func (s *ControlServer) Attach(sim *engine.Simulation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim = sim
	if s.closed {
		sim.Resume()
	}
}

// Close 恢复被暂停的模拟，使其能观察到退出
func (s *ControlServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.sim != nil {
		s.sim.Resume()
	}
}

func (s *ControlServer) current() (*engine.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sim == nil {
		return nil, connect.NewError(connect.CodeUnavailable, ErrNoSimulation)
	}
	return s.sim, nil
}

// Register 把各接口挂到mux上
func (s *ControlServer) Register(mux *http.ServeMux) {
	opt := connect.WithCodec(jsonCodec{})
	mux.Handle(SUSPEND_PROCEDURE, connect.NewUnaryHandler(SUSPEND_PROCEDURE, s.Suspend, opt))
	mux.Handle(RESUME_PROCEDURE, connect.NewUnaryHandler(RESUME_PROCEDURE, s.Resume, opt))
	mux.Handle(STATUS_PROCEDURE, connect.NewUnaryHandler(STATUS_PROCEDURE, s.Status, opt))
	mux.Handle(PLAN_ROUTE_PROCEDURE, connect.NewUnaryHandler(PLAN_ROUTE_PROCEDURE, s.PlanRoute, opt))
}

func (s *ControlServer) Suspend(
	ctx context.Context,
	req *connect.Request[StatusRequest],
) (*connect.Response[engine.Status], error) {
	sim, err := s.current()
	if err != nil {
		return nil, err
	}
	sim.Suspend()
	log.Info("simulation suspended")
	return connect.NewResponse(lo.ToPtr(sim.Status())), nil
}

func (s *ControlServer) Resume(
	ctx context.Context,
	req *connect.Request[StatusRequest],
) (*connect.Response[engine.Status], error) {
	sim, err := s.current()
	if err != nil {
		return nil, err
	}
	sim.Resume()
	log.Info("simulation resumed")
	return connect.NewResponse(lo.ToPtr(sim.Status())), nil
}

func (s *ControlServer) Status(
	ctx context.Context,
	req *connect.Request[StatusRequest],
) (*connect.Response[engine.Status], error) {
	sim, err := s.current()
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(lo.ToPtr(sim.Status())), nil
}

func (s *ControlServer) PlanRoute(
	ctx context.Context,
	req *connect.Request[PlanRouteRequest],
) (*connect.Response[PlanRouteResponse], error) {
	sim, err := s.current()
	if err != nil {
		return nil, err
	}
	in := req.Msg
	// 检查数据是否超出范围
	if _, ok := sim.Agent(in.Agent); !ok {
		return nil, connect.NewError(
			connect.CodeNotFound,
			fmt.Errorf("no agent ID: %v", in.Agent),
		)
	}
	w := sim.World()
	if w.Node(in.Origin) == nil {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("no origin node ID: %v", in.Origin),
		)
	}
	if w.Node(in.Destination) == nil {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("no destination node ID: %v", in.Destination),
		)
	}
	log.Debugf("plan route for agent %d from %d to %d", in.Agent, in.Origin, in.Destination)
	route, traits, err := sim.PlanFor(in.Agent, in.Origin, in.Destination)
	if err != nil || route == nil {
		// 无法找到通路，返回空响应
		return connect.NewResponse(&PlanRouteResponse{}), nil
	}
	return connect.NewResponse(&PlanRouteResponse{
		Nodes:            route.Nodes,
		Edges:            route.Edges,
		VisitedLocations: route.VisitedLocations,
		Length:           route.Length(w),
		Heuristics:       traits.String(),
	}), nil
}
