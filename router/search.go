package router

import (
	"math"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/router/algo"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/samber/lo"
)

// SegmentSolver 求解o到d的一段路线，avoid中的边不可使用，不可达时返回nil与+Inf
type SegmentSolver func(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64)

// Searcher 一次出行使用的代价偏置搜索
// 代价在原始度量（距离或转角）上乘以屏障感知误差，并按远距离地标程度折减
type Searcher struct {
	w      *world.World
	m      *cognition.CognitiveMap
	c      *cognition.Community
	cfg    config.Search
	rc     config.RouteChoice
	traits heuristics.Traits
	rng    *rand.Rand

	network  *cognition.KnownNetwork
	barriers world.Set
	// 整次出行的终点，地标吸引以它为参照
	destination int32
	// 只在本次出行内有效的区域导航开关
	regions bool
}

func NewSearcher(m *cognition.CognitiveMap, traits heuristics.Traits, destination int32, rng *rand.Rand) *Searcher {
	w := m.World()
	return &Searcher{
		w:           w,
		m:           m,
		c:           m.Community(),
		cfg:         w.Config().Search,
		rc:          w.Config().RouteChoice,
		traits:      traits,
		rng:         rng,
		network:     m.KnownNetwork(),
		barriers:    m.KnownBarriers(),
		destination: destination,
		regions:     traits.Regions,
	}
}

// DisableRegions 放弃区域导航，后续分段不再限制在区域内
func (s *Searcher) DisableRegions() {
	s.regions = false
}

// SetNetwork 途经点补入已知网络后更新搜索范围
func (s *Searcher) SetNetwork(n *cognition.KnownNetwork) {
	s.network = n
}

// Solver 按度量返回分段求解器
func (s *Searcher) Solver(metric heuristics.Minimisation) SegmentSolver {
	if metric == heuristics.ANGULAR_CHANGE {
		return s.AngularChange
	}
	return s.RoadDistance
}

// RoadDistance 原始图上的距离最短
func (s *Searcher) RoadDistance(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64) {
	if des, ok := s.directEdge(o, d, avoid); ok {
		e := s.w.Edge(des[0].Edge)
		return des, e.Length * s.perceptionError(e)
	}
	return s.withFallback(o, d, func(region int32, known bool) ([]world.DirectedEdge, float64) {
		return s.primal(o, d, avoid, region, known, false)
	})
}

// GlobalLandmarks 原始图上的距离最短，并总是受远距离地标吸引
func (s *Searcher) GlobalLandmarks(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64) {
	if des, ok := s.directEdge(o, d, avoid); ok {
		e := s.w.Edge(des[0].Edge)
		return des, e.Length * s.perceptionError(e)
	}
	return s.withFallback(o, d, func(region int32, known bool) ([]world.DirectedEdge, float64) {
		return s.primal(o, d, avoid, region, known, true)
	})
}

// AngularChange 对偶图上的累计转角最少，两点有公共相邻节点时直接经由该节点
func (s *Searcher) AngularChange(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64) {
	if des, ok := s.directEdge(o, d, avoid); ok {
		// 一条边上没有转弯
		return des, 0
	}
	if des, cost, ok := s.commonJunction(o, d, avoid); ok {
		return des, cost
	}
	return s.withFallback(o, d, func(region int32, known bool) ([]world.DirectedEdge, float64) {
		return s.dual(o, d, avoid, region, known)
	})
}

// 区域内 -> 已知网络 -> 社区全路网，逐级放宽
func (s *Searcher) withFallback(o, d int32, search func(region int32, known bool) ([]world.DirectedEdge, float64)) ([]world.DirectedEdge, float64) {
	if o == d {
		return []world.DirectedEdge{}, 0
	}
	if s.network == nil {
		return search(world.NO_REGION, false)
	}
	if region, ok := s.regionCondition(o, d); ok {
		if des, cost := search(region, true); des != nil {
			return des, cost
		}
	}
	if des, cost := search(world.NO_REGION, true); des != nil {
		return des, cost
	}
	des, cost := search(world.NO_REGION, false)
	if des != nil {
		log.Warnf("segment %d->%d not connected in the known network, searched on the community network", o, d)
	}
	return des, cost
}

// 区域导航且两端在同一已知区域时，搜索限制在该区域内
func (s *Searcher) regionCondition(o, d int32) (int32, bool) {
	r := s.w.Node(o).Region
	if !s.regions || r != s.w.Node(d).Region || !s.m.IsRegionKnown(r) {
		return world.NO_REGION, false
	}
	return r, true
}

func (s *Searcher) edgeAllowed(id int32, avoid world.Set, region int32, known bool) bool {
	if avoid.Has(id) {
		return false
	}
	if region != world.NO_REGION && s.w.Edge(id).Region != region {
		return false
	}
	return !known || s.network.HasEdge(id)
}

func (s *Searcher) dualAllowed(id int32, avoid world.Set, region int32, known bool) bool {
	if avoid.Has(id) {
		return false
	}
	if region != world.NO_REGION && s.w.Edge(id).Region != region {
		return false
	}
	return !known || s.network.DualNodes.Has(id)
}

func (s *Searcher) knowsAny(barriers []int32) bool {
	return lo.SomeBy(barriers, func(b int32) bool { return s.barriers.Has(b) })
}

// 边的感知误差：只用最小化、或既不在意屏障也不用任何环境要素时为1；否则默认从中性分布采样，
// 偏好自然屏障时沿已知自然屏障的边从左偏分布采样，回避割裂屏障时沿已知割裂屏障的边从右偏分布采样
func (s *Searcher) perceptionError(e *world.Edge) float64 {
	t := &s.traits
	if t.Minimising() || (t.Barriers == 0 && !t.UsingElements()) {
		return 1
	}
	v := heuristics.Normal(s.rng, s.cfg.NeutralPerceptionMean, s.cfg.NeutralPerceptionSD)
	if t.Barriers.Has(heuristics.PREFER_NATURAL) && s.knowsAny(e.PositiveBarriers) {
		v = heuristics.SkewNormal(s.rng, t.NaturalMean, t.NaturalSD, -s.cfg.SkewShape)
	}
	if t.Barriers.Has(heuristics.AVOID_SEVERING) && s.knowsAny(e.NegativeBarriers) {
		v = heuristics.SkewNormal(s.rng, t.SeveringMean, t.SeveringSD, s.cfg.SkewShape)
	}
	return math.Max(v, MIN_PERCEPTION_ERROR)
}

// 远距离地标吸引：目标点距终点超过可见阈值时，代价乘以(1 - 地标程度·权重)
func (s *Searcher) landmarkFactor(target int32, angular, force bool) float64 {
	if s.traits.Minimising() || !(s.traits.DistantLandmarks || force) {
		return 1
	}
	if s.w.Distance(target, s.destination) <= s.rc.Threshold3dVisibility {
		return 1
	}
	return 1 - GlobalLandmarkness(s.c, target, s.destination)*s.traits.GlobalLandmarkWeight(angular)
}

func (s *Searcher) primal(o, d int32, avoid world.Set, region int32, known, landmarks bool) ([]world.DirectedEdge, float64) {
	expand := func(cur *algo.Wrapper[world.DirectedEdge]) []algo.Neighbor[world.DirectedEdge] {
		outgoing := s.w.Outgoing(int32(cur.Node))
		out := make([]algo.Neighbor[world.DirectedEdge], 0, len(outgoing))
		for _, de := range outgoing {
			if !s.edgeAllowed(de.Edge, avoid, region, known) {
				continue
			}
			e := s.w.Edge(de.Edge)
			cost := e.Length * s.perceptionError(e) * s.landmarkFactor(de.To, false, landmarks)
			out = append(out, algo.Neighbor[world.DirectedEdge]{Node: int(de.To), Edge: de, Cost: cost})
		}
		return out
	}
	items, cost := algo.Dijkstra(int(o), int(d), expand)
	if items == nil {
		return nil, cost
	}
	return lo.Map(items[:len(items)-1], func(it algo.PathItem[world.DirectedEdge], _ int) world.DirectedEdge {
		return it.EdgeAttr
	}), cost
}

// 对偶搜索的状态是有向边：边ID*2+方向
func (s *Searcher) stateOf(de world.DirectedEdge) int {
	if s.w.Edge(de.Edge).From == de.From {
		return int(de.Edge) * 2
	}
	return int(de.Edge)*2 + 1
}

func (s *Searcher) directedOf(state int) world.DirectedEdge {
	e := s.w.Edge(int32(state / 2))
	de := world.DirectedEdge{Edge: e.ID, From: e.From, To: e.To}
	if state%2 == 1 {
		return de.Reverse()
	}
	return de
}

func (s *Searcher) dual(o, d int32, avoid world.Set, region int32, known bool) ([]world.DirectedEdge, float64) {
	expand := func(cur *algo.Wrapper[world.Turn]) []algo.Neighbor[world.Turn] {
		if cur.Node == VIRTUAL_START {
			out := make([]algo.Neighbor[world.Turn], 0)
			for _, de := range s.w.Outgoing(o) {
				if s.dualAllowed(de.Edge, avoid, region, known) {
					out = append(out, algo.Neighbor[world.Turn]{Node: s.stateOf(de), Cost: 0})
				}
			}
			return out
		}
		de := s.directedOf(cur.Node)
		turns := s.w.Turns(de.Edge)
		out := make([]algo.Neighbor[world.Turn], 0, len(turns))
		for _, t := range turns {
			if t.Junction != de.To || !s.dualAllowed(t.To, avoid, region, known) {
				continue
			}
			if known && !s.network.HasTurn(t) {
				continue
			}
			next := s.w.Edge(t.To)
			nd := world.DirectedEdge{Edge: next.ID, From: de.To, To: next.Other(de.To)}
			cost := lo.Clamp(t.Deflection, MIN_DEFLECTION_ANGLE, MAX_DEFLECTION_ANGLE) *
				s.perceptionError(next) * s.landmarkFactor(nd.To, true, false)
			out = append(out, algo.Neighbor[world.Turn]{Node: s.stateOf(nd), Edge: t, Cost: cost})
		}
		return out
	}
	items, cost := algo.DijkstraTo(VIRTUAL_START, func(n int) bool {
		return n != VIRTUAL_START && s.directedOf(n).To == d
	}, expand)
	if items == nil {
		return nil, cost
	}
	return lo.Map(items[1:], func(it algo.PathItem[world.Turn], _ int) world.DirectedEdge {
		return s.directedOf(it.Node)
	}), cost
}

// 捷径只走已知网络中的边
func (s *Searcher) shortcutAllowed(id int32, avoid world.Set) bool {
	return !avoid.Has(id) && (s.network == nil || s.network.HasEdge(id))
}

// 直接相连，代价由调用方按各自的度量给出
func (s *Searcher) directEdge(o, d int32, avoid world.Set) ([]world.DirectedEdge, bool) {
	de, ok := s.w.DirectedEdgeBetween(o, d)
	if !ok || !s.shortcutAllowed(de.Edge, avoid) {
		return nil, false
	}
	return []world.DirectedEdge{de}, true
}

// 有公共相邻节点时经由该节点，转角代价为该处的偏转角
func (s *Searcher) commonJunction(o, d int32, avoid world.Set) ([]world.DirectedEdge, float64, bool) {
	for _, first := range s.w.Outgoing(o) {
		if !s.shortcutAllowed(first.Edge, avoid) || first.To == d {
			continue
		}
		second, ok := s.w.DirectedEdgeBetween(first.To, d)
		if !ok || !s.shortcutAllowed(second.Edge, avoid) || second.Edge == first.Edge {
			continue
		}
		for _, t := range s.w.Turns(first.Edge) {
			if t.To == second.Edge && t.Junction == first.To {
				return []world.DirectedEdge{first, second}, lo.Clamp(t.Deflection, MIN_DEFLECTION_ANGLE, MAX_DEFLECTION_ANGLE), true
			}
		}
	}
	return nil, 0, false
}
