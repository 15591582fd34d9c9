package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"git.fiblab.net/sim/wayfinding/agent"
	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/router"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Status 模拟运行状态的快照
type Status struct {
	RunID         string  `json:"run_id"`
	Job           int     `json:"job"`
	Tick          int64   `json:"tick"`
	Day           int     `json:"day"`
	Agents        int     `json:"agents"`
	Waiting       int     `json:"waiting"`
	Walking       int     `json:"walking"`
	AtDestination int     `json:"at_destination"`
	MetersWalked  float64 `json:"meters_walked"`
	Suspended     bool    `json:"suspended"`
	Finished      bool    `json:"finished"`
}

// Simulation 按步推进全部代理，按天释放代理、输出流量，定期让学习者遗忘
type Simulation struct {
	cfg       *config.Config
	w         *world.World
	community *cognition.Community
	occupancy *agent.Occupancy
	flows     *FlowHandler
	release   *ReleaseManager
	exporter  Exporter
	run       Run

	Agents []*agent.Agent
	index  map[int32]*agent.Agent

	// 暂停-恢复机制：ok为false时在下一步开始前等待
	ok   bool
	cond *sync.Cond

	status atomic.Pointer[Status]
}

// New 构建社区认知地图与代理；exporter可为nil
func New(ctx context.Context, w *world.World, exporter Exporter, job int) (*Simulation, error) {
	cfg := w.Config()
	s := &Simulation{
		cfg:       cfg,
		w:         w,
		community: cognition.NewCommunity(w),
		occupancy: agent.NewOccupancy(),
		flows:     NewFlowHandler(w, cfg.Export.Routes),
		exporter:  exporter,
		run:       NewRun(job, cfg.Simulation.CityName),
		ok:        true,
		cond:      sync.NewCond(&sync.Mutex{}),
	}
	agents, err := Populate(ctx, s.community, s.occupancy, s.flows)
	if err != nil {
		return nil, err
	}
	s.Agents = agents
	s.index = make(map[int32]*agent.Agent, len(agents))
	for _, a := range agents {
		s.index[a.ID] = a
	}
	s.release = NewReleaseManager(cfg, rand.New(rand.NewPCG(uint64(cfg.Simulation.Seed), uint64(job))))
	s.snapshot(0, 0, false)
	return s, nil
}

// RunInfo 本次运行的标识
func (s *Simulation) RunInfo() Run {
	return s.run
}

func (s *Simulation) World() *world.World {
	return s.w
}

func (s *Simulation) Flows() *FlowHandler {
	return s.flows
}

func (s *Simulation) Occupancy() *agent.Occupancy {
	return s.occupancy
}

func (s *Simulation) Agent(id int32) (*agent.Agent, bool) {
	a, ok := s.index[id]
	return a, ok
}

// Status 最近一步结束时的状态
func (s *Simulation) Status() Status {
	st := *s.status.Load()
	s.cond.L.Lock()
	st.Suspended = !s.ok
	s.cond.L.Unlock()
	return st
}

// Suspend 暂停模拟
func (s *Simulation) Suspend() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = false
}

// Resume 恢复模拟
func (s *Simulation) Resume() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = true
	s.cond.Broadcast()
}

func (s *Simulation) wait() {
	s.cond.L.Lock()
	for !s.ok {
		// 暂停中
		s.cond.Wait()
	}
	s.cond.L.Unlock()
}

// PlanFor 用代理的认知地图按需规划一条路线，不影响代理自身的随机数、出行与认知地图
func (s *Simulation) PlanFor(id, origin, destination int32) (*world.Route, heuristics.Traits, error) {
	a, ok := s.index[id]
	if !ok {
		return nil, heuristics.Traits{}, fmt.Errorf("agent %d: %w", id, ErrUnknownAgent)
	}
	rng := rand.New(rand.NewPCG(uint64(id), uint64(origin)<<32|uint64(uint32(destination))))
	h := heuristics.NewDetached(a.Map(), a.Learner, rng)
	route, err := router.NewPlanner(a.Map(), h, rng).PlanRoute(origin, destination)
	return route, h.Traits(), err
}

// Run 运行配置的天数，ctx取消时在下一步开始前返回
func (s *Simulation) Run(ctx context.Context) error {
	cfg := s.cfg
	stepsPerDay := int64(cfg.StepsPerDay())
	total := stepsPerDay * int64(cfg.Simulation.Days)
	if s.exporter != nil {
		if err := s.exporter.Begin(ctx, s.run); err != nil {
			return fmt.Errorf("begin export: %w", err)
		}
	}
	log.Infof("run %s (job %d): %s agents for %d days, %s steps",
		s.run.ID, s.run.Job, humanize.Comma(int64(len(s.Agents))), cfg.Simulation.Days, humanize.Comma(total))

	day := 0
	s.release.StartDay(day, s.Agents)
	for tick := int64(1); tick <= total; tick++ {
		s.wait()
		if err := ctx.Err(); err != nil {
			return err
		}
		if (tick-1)%int64(max(1, cfg.Time.ReleaseAgentsEverySteps)) == 0 {
			if _, err := s.release.Release(ctx, tick, s.Agents); err != nil {
				return err
			}
		}
		s.step(tick)
		if tick%stepsPerDay == 0 {
			if err := s.endDay(ctx, day); err != nil {
				return err
			}
			day++
			if cfg.Time.DecayEveryDays > 0 && day%cfg.Time.DecayEveryDays == 0 {
				s.decay()
			}
			if tick < total {
				s.release.StartDay(day, s.Agents)
			}
		}
		s.snapshot(tick, day, tick == total)
	}
	log.Infof("run %s finished", s.run.ID)
	return nil
}

// 并行步进时各代理只修改自身状态与并发安全的共享计数
func (s *Simulation) step(tick int64) {
	if !s.cfg.Simulation.ParallelStep {
		for _, a := range s.Agents {
			a.Step(tick)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(max(1, s.cfg.Simulation.Workers))
	for _, a := range s.Agents {
		g.Go(func() error {
			a.Step(tick)
			return nil
		})
	}
	g.Wait()
}

func (s *Simulation) endDay(ctx context.Context, day int) error {
	flows := s.flows.EndDay(day+1, s.Agents)
	trips := len(flows.Trips)
	log.Infof("day %d done: %s trips, %s walked in total", day+1,
		humanize.Comma(int64(trips)), humanize.SIWithDigits(walked(s.Agents), 1, "m"))
	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.Export(ctx, s.run, flows); err != nil {
		return fmt.Errorf("export day %d: %w", day+1, err)
	}
	return nil
}

// 学习者的记忆按经过的天数衰减
func (s *Simulation) decay() {
	elapsed := float64(s.cfg.Time.DecayEveryDays) * 86400
	changed := 0
	for _, a := range s.Agents {
		if a.ApplyDecay(elapsed) {
			changed++
		}
	}
	log.Infof("memory decay: %d cognitive maps readjusted", changed)
}

func (s *Simulation) snapshot(tick int64, day int, finished bool) {
	st := &Status{
		RunID:    s.run.ID.String(),
		Job:      s.run.Job,
		Tick:     tick,
		Day:      day,
		Agents:   len(s.Agents),
		Finished: finished,
	}
	for _, a := range s.Agents {
		switch a.Status() {
		case agent.STATUS_WAITING:
			st.Waiting++
		case agent.STATUS_WALKING, agent.STATUS_GOING_HOME:
			st.Walking++
		case agent.STATUS_AT_DESTINATION:
			st.AtDestination++
		}
		st.MetersWalked += a.MetersWalked()
	}
	s.status.Store(st)
}
