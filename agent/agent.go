package agent

import (
	"fmt"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/router"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/samber/lo"
)

// FlowSink 接收每次完成的出行
// 多个代理可能并发调用
type FlowSink interface {
	TripCompleted(a *Agent, r *world.Route)
}

// Agent 行人：在家等待、被释放后前往随机的已知目的地、停留、回家
type Agent struct {
	ID      int32
	Learner bool

	cfg      *config.Config
	w        *world.World
	m        *cognition.CognitiveMap
	h        *heuristics.Heuristics
	planner  *router.Planner
	learning *cognition.IncrementalLearning
	movement *Movement
	sink     FlowSink
	rng      *rand.Rand

	status Status
	// 当前所在节点，行走中为出发节点
	Location        int32
	LastDestination int32
	// 停留在目的地的剩余步数
	dwell int
	tick  int64
	Trips int
}

// New 代理的认知地图需已形成；学习者每次到达后更新记忆
func New(id int32, m *cognition.CognitiveMap, learner bool, occ *Occupancy, sink FlowSink, rng *rand.Rand) *Agent {
	w := m.World()
	h := heuristics.New(m, learner, rng)
	a := &Agent{
		ID:              id,
		Learner:         learner,
		cfg:             w.Config(),
		w:               w,
		m:               m,
		h:               h,
		planner:         router.NewPlanner(m, h, rng),
		sink:            sink,
		rng:             rng,
		status:          STATUS_WAITING,
		Location:        m.Home,
		LastDestination: m.Home,
	}
	if learner {
		a.learning = cognition.NewIncrementalLearning(m, rng)
	}
	a.movement = NewMovement(w, occ, m.KnownEdges, rng)
	return a
}

// Tag 流量统计的场景标签
func (a *Agent) Tag() string {
	if a.Learner {
		return TAG_LEARNER
	}
	return TAG_NOT_LEARNER
}

func (a *Agent) Status() Status {
	return a.status
}

func (a *Agent) Map() *cognition.CognitiveMap {
	return a.m
}

func (a *Agent) Planner() *router.Planner {
	return a.planner
}

// Learning 非学习者为nil
func (a *Agent) Learning() *cognition.IncrementalLearning {
	return a.learning
}

func (a *Agent) Movement() *Movement {
	return a.movement
}

// MetersWalked 累计步行里程
func (a *Agent) MetersWalked() float64 {
	return a.movement.TotalMeters
}

// BuildBasicMemory 学习者在模拟开始前记住若干条家到工作地的路线
func (a *Agent) BuildBasicMemory() error {
	if a.learning == nil {
		return nil
	}
	if err := a.learning.BuildBasicMemory(a.planner, 0); err != nil {
		return fmt.Errorf("agent %d: %w", a.ID, err)
	}
	return nil
}

// Release 在家等待的代理出发前往距离约为distance的已知目的地
func (a *Agent) Release(distance float64) error {
	if a.status != STATUS_WAITING {
		return ErrNotWaiting
	}
	destination, err := a.randomDestination(distance)
	if err != nil {
		return fmt.Errorf("agent %d: %w", a.ID, err)
	}
	return a.PlanTrip(destination, STATUS_WALKING)
}

// PlanTrip 从当前位置规划到destination的出行，以status行走
// 起终点相同时立即到达；全路网上不可达时放弃出行，代理保持原状态
func (a *Agent) PlanTrip(destination int32, status Status) error {
	if destination == a.Location {
		a.LastDestination = destination
		a.status = status
		a.movement.Init(world.NewRoute(destination, destination, []world.DirectedEdge{}))
		a.arrive(a.tick)
		a.NextActivity(a.tick)
		return nil
	}
	route, err := a.planner.PlanRoute(a.Location, destination)
	if err != nil {
		log.Warnf("agent %d abandons trip %d->%d: %v", a.ID, a.Location, destination, err)
		return err
	}
	a.LastDestination = destination
	a.status = status
	a.movement.Init(route)
	return nil
}

// Step 推进一步
func (a *Agent) Step(tick int64) {
	a.tick = tick
	switch a.status {
	case STATUS_WALKING, STATUS_GOING_HOME:
		if a.movement.KeepWalking() {
			a.arrive(tick)
			a.NextActivity(tick)
		}
	case STATUS_AT_DESTINATION:
		a.dwell--
		if a.dwell <= 0 {
			a.NextActivity(tick)
		}
	}
}

// NextActivity 当前活动结束后转入下一个活动
// 到达目的地后停留，停留结束后回家，到家后等待下次释放
func (a *Agent) NextActivity(tick int64) {
	switch a.status {
	case STATUS_WALKING:
		mv := a.cfg.Movement
		minutes := mv.DwellMinMinutes
		if mv.DwellMaxMinutes > mv.DwellMinMinutes {
			minutes += a.rng.IntN(mv.DwellMaxMinutes - mv.DwellMinMinutes + 1)
		}
		a.dwell = a.cfg.MinutesToSteps(minutes)
		a.status = STATUS_AT_DESTINATION
	case STATUS_AT_DESTINATION:
		if err := a.PlanTrip(a.m.Home, STATUS_GOING_HOME); err != nil {
			// 回不了家时直接回到家
			a.Location = a.m.Home
			a.status = STATUS_WAITING
		}
	case STATUS_GOING_HOME:
		a.status = STATUS_WAITING
	}
	log.Debugf("agent %d at tick %d: %v at node %d", a.ID, tick, a.status, a.Location)
}

// 到达：记录流量，学习者更新记忆
func (a *Agent) arrive(tick int64) {
	route := a.movement.Route()
	a.Location = route.Destination
	a.Trips++
	if len(route.DirectedEdges) == 0 {
		return
	}
	if a.sink != nil {
		a.sink.TripCompleted(a, route)
	}
	if a.learning != nil && route.Length(a.w) > a.cfg.Learning.MinLearnedRoute {
		a.learning.SetLocalThreshold(a.h.Traits().LocalThreshold)
		a.learning.UpdateMemory(route, tick)
	}
}

// ApplyDecay 学习者的记忆遗忘
func (a *Agent) ApplyDecay(elapsedSeconds float64) bool {
	if a.learning == nil {
		return false
	}
	return a.learning.ApplyDecay(a.m.SpatialAbility, elapsedSeconds)
}

// 已知节点中与当前位置直线距离在[0.9d, d]内的随机节点，找不到时逐步放宽
func (a *Agent) randomDestination(distance float64) (int32, error) {
	known := a.m.KnownNodes()
	lower, upper := distance*DESTINATION_WINDOW_LOWER, distance*DESTINATION_WINDOW_UPPER
	for i := 0; i < MAX_WINDOW_WIDENINGS; i++ {
		candidates := a.w.NodesBetweenDistance(a.Location, lower, upper, known)
		if len(candidates) > 0 {
			return candidates[a.rng.IntN(len(candidates))], nil
		}
		lower, upper = lower*WINDOW_SHRINK, upper*WINDOW_GROW
	}
	others := lo.Filter(known.Sorted(), func(id int32, _ int) bool { return id != a.Location })
	if len(others) == 0 {
		return 0, ErrNoDestination
	}
	return others[a.rng.IntN(len(others))], nil
}
