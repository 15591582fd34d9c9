package router

import (
	"fmt"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/world"
)

// Planner 代理的路线规划器
// 按策略选出途经点序列，逐段调用代价偏置搜索并拼接
type Planner struct {
	m   *cognition.CognitiveMap
	h   *heuristics.Heuristics
	rng *rand.Rand
}

func NewPlanner(m *cognition.CognitiveMap, h *heuristics.Heuristics, rng *rand.Rand) *Planner {
	return &Planner{m: m, h: h, rng: rng}
}

// PlanRoute 先为本次出行确定策略再规划
func (p *Planner) PlanRoute(origin, destination int32) (*world.Route, error) {
	if origin == destination {
		return world.NewRoute(origin, destination, []world.DirectedEdge{}), nil
	}
	return p.Plan(origin, destination, p.h.Define(origin, destination))
}

// Plan 按给定策略规划origin到destination的路线
// 起终点相同时直接返回空路线；全路网上也不可达时返回ErrNoRoute，出行应被放弃
func (p *Planner) Plan(origin, destination int32, traits heuristics.Traits) (route *world.Route, err error) {
	// panic recover
	defer func() {
		if e := recover(); e != nil {
			route = nil
			err = fmt.Errorf("panic: Plan %v with input origin=%v, destination=%v, traits=%v", e, origin, destination, traits)
			log.Errorln(err)
		}
	}()

	w := p.m.World()
	if w.Node(origin) == nil || w.Node(destination) == nil {
		return nil, fmt.Errorf("plan %d->%d: %w", origin, destination, ErrUnknownNode)
	}
	if origin == destination {
		return world.NewRoute(origin, destination, []world.DirectedEdge{}), nil
	}
	trip := NewTrip(p.m, traits, origin, destination)
	if !p.h.Detached() {
		p.m.SetKnownLocalLandmarks(trip.landmarks)
	}
	s := NewSearcher(p.m, traits, destination, p.rng)
	if network, changed := p.ensureKnown(trip.network, origin, destination); changed {
		trip.network = network
		s.SetNetwork(network)
	}
	des, err := p.plan(trip, s)
	if err != nil {
		log.Debugf("plan %d->%d with %v failed: %v, retry as plain minimisation", origin, destination, traits, err)
		s.DisableRegions()
		des, _ = s.Solver(traits.Metric())(origin, destination, nil)
		if des == nil {
			log.Warnf("trip %d->%d abandoned: unreachable on the community network", origin, destination)
			return nil, fmt.Errorf("plan %d->%d: %w", origin, destination, ErrNoRoute)
		}
	}
	route = world.NewRoute(origin, destination, des)
	route.VisitedLocations = trip.Marks()
	return route, nil
}

func (p *Planner) plan(t *Trip, s *Searcher) ([]world.DirectedEdge, error) {
	tr := t.traits
	solve := s.Solver(tr.Metric())
	if tr.Minimising() {
		return single(solve, t.Origin, t.Destination)
	}

	var sequence []int32
	regions := t.regionBased()
	if regions {
		sequence = t.RegionSequence()
	}
	if !regions || sequence == nil {
		regions = false
		s.DisableRegions()
	}
	switch {
	case tr.Subgoal == heuristics.SUBGOAL_BARRIERS && !regions:
		sequence = t.BarrierSequence()
	case tr.Subgoal == heuristics.SUBGOAL_LOCAL_LANDMARKS:
		if regions {
			sequence = t.RegionOnRouteMarks(sequence)
		} else {
			sequence = t.OnRouteMarks()
		}
	case tr.DistantLandmarks && tr.Subgoal == heuristics.SUBGOAL_NONE:
		solve = s.GlobalLandmarks
	}

	if len(sequence) == 0 {
		return single(solve, t.Origin, t.Destination)
	}
	return Stitch(sequence, solve, s.cfg.MaxBacktracks)
}

func single(solve SegmentSolver, o, d int32) ([]world.DirectedEdge, error) {
	des, _ := solve(o, d, nil)
	if des == nil {
		return nil, fmt.Errorf("segment %d->%d: %w", o, d, ErrNoRoute)
	}
	return des, nil
}

// 起终点不在已知网络中时，把它们与最近的已知节点之间的路线并入一份只用于本次出行的网络
func (p *Planner) ensureKnown(network *cognition.KnownNetwork, nodes ...int32) (*cognition.KnownNetwork, bool) {
	if network == nil || len(network.Nodes) == 0 {
		return network, false
	}
	w := p.m.World()
	changed := false
	for _, n := range nodes {
		if network.HasNode(n) {
			continue
		}
		nearest, best := int32(world.NO_NODE), 0.0
		for _, k := range network.Nodes.Sorted() {
			if d := w.Distance(n, k); nearest == world.NO_NODE || d < best {
				nearest, best = k, d
			}
		}
		network = p.m.Builder().AddRoute(network, nearest, n)
		changed = true
	}
	return network, changed
}
