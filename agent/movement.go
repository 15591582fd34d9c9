package agent

import (
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb"
)

// Movement 代理沿规划路线的逐步移动
// 每步前进reach米，越过当前边终点时把剩余距离带到下一条边，直到用完或到达终点
type Movement struct {
	w   *world.World
	cfg config.Movement
	occ *Occupancy
	rng *rand.Rand
	// 重规划时允许使用的边
	known    func() world.Set
	moveRate float64

	route   *world.Route
	planned []world.DirectedEdge
	index   int
	current world.DirectedEdge
	line    *world.IndexedLine
	// 当前边上已走过的弧长
	position float64
	point    orb.Point
	walked   []world.DirectedEdge
	boosted  bool
	rerouted bool
	arrived  bool
	// 本次出行与累计的步行里程
	TripMeters  float64
	TotalMeters float64
}

// NewMovement known返回代理当前的已知边集合，重规划绕行时只使用这些边
func NewMovement(w *world.World, occ *Occupancy, known func() world.Set, rng *rand.Rand) *Movement {
	cfg := w.Config()
	return &Movement{
		w:        w,
		cfg:      cfg.Movement,
		occ:      occ,
		rng:      rng,
		known:    known,
		moveRate: cfg.MoveRate(),
	}
}

// Init 开始沿route行走，空路线直接到达
func (mv *Movement) Init(route *world.Route) {
	mv.route = route
	mv.planned = route.DirectedEdges
	mv.index = 0
	mv.position = 0
	mv.walked = make([]world.DirectedEdge, 0, len(route.DirectedEdges))
	mv.boosted, mv.rerouted = false, false
	mv.TripMeters = 0
	mv.point = mv.w.Node(route.Origin).Point
	mv.arrived = len(route.DirectedEdges) == 0
	if !mv.arrived {
		mv.setupEdge()
	}
}

func (mv *Movement) Arrived() bool {
	return mv.arrived
}

// Route 正在走（或已走完）的路线，到达后为实际走过的边
func (mv *Movement) Route() *world.Route {
	return mv.route
}

func (mv *Movement) Rerouted() bool {
	return mv.rerouted
}

// Position 当前所在位置
func (mv *Movement) Position() orb.Point {
	return mv.point
}

// Current 当前所在的有向边
func (mv *Movement) Current() (world.DirectedEdge, bool) {
	if mv.arrived || mv.route == nil {
		return world.DirectedEdge{}, false
	}
	return mv.current, true
}

// Reach 本步可行走的距离，上一条边拥挤且未绕行时加速
func (mv *Movement) Reach() float64 {
	if mv.boosted {
		return mv.moveRate * (1 + mv.cfg.SpeedIncrementFactor)
	}
	return mv.moveRate
}

// KeepWalking 前进一步，返回本步是否到达终点
func (mv *Movement) KeepWalking() bool {
	if mv.arrived || mv.route == nil {
		return mv.arrived
	}
	residual := mv.Reach()
	for {
		left := mv.line.Length() - mv.position
		if residual < left {
			mv.position += residual
			mv.point = mv.line.ExtractPoint(mv.position)
			return false
		}
		// 到达当前边终点，剩余距离带到下一条边
		residual -= left
		mv.point = mv.line.ExtractPoint(mv.line.Length())
		mv.occ.Leave(mv.current.Edge)
		mv.index++
		if mv.index >= len(mv.route.DirectedEdges) {
			mv.finish()
			return true
		}
		mv.position = 0
		mv.setupEdge()
	}
}

// Abort 中止出行，释放占用的边
func (mv *Movement) Abort() {
	if mv.route == nil || mv.arrived {
		return
	}
	mv.occ.Leave(mv.current.Edge)
	mv.arrived = true
}

func (mv *Movement) finish() {
	mv.arrived = true
	// 实际走过的边即实现的路线
	mv.route.Reset(mv.walked)
}

// 开始一条新边：拥挤检查（绕行或加速）、占用计数、里程累计
func (mv *Movement) setupEdge() {
	de := mv.route.DirectedEdges[mv.index]
	mv.boosted = false
	if mv.occ.Crowded(de.Edge, mv.cfg.CrowdingPercentile) {
		if mv.rng.Float64() < mv.cfg.RerouteProbability && mv.canReroute(de) && mv.reroute(de) {
			de = mv.route.DirectedEdges[mv.index]
		} else {
			mv.boosted = true
		}
	}
	mv.current = de
	mv.line = mv.w.IndexedLine(de)
	mv.walked = append(mv.walked, de)
	mv.occ.Enter(de.Edge)
	length := mv.w.Edge(de.Edge).Length
	mv.TripMeters += length
	mv.TotalMeters += length
}

// 非首条边、当前边不与终点相接、仍在原规划路线上
func (mv *Movement) canReroute(de world.DirectedEdge) bool {
	if mv.index == 0 || mv.rerouted {
		return false
	}
	return !mv.w.Edge(de.Edge).HasEndpoint(mv.route.Destination)
}

// 从当前节点绕开拥挤边重新规划剩余路线
// 先只走已知边（终点相接的边始终可用），失败时只避开拥挤边
func (mv *Movement) reroute(crowded world.DirectedEdge) bool {
	from, destination := crowded.From, mv.route.Destination
	known := mv.known()
	near := world.NewSet(mv.w.Node(destination).Edges...)
	avoids := []func(world.DirectedEdge) bool{
		func(d world.DirectedEdge) bool {
			if d.Edge == crowded.Edge {
				return true
			}
			return !known.Has(d.Edge) && !near.Has(d.Edge)
		},
		func(d world.DirectedEdge) bool {
			return d.Edge == crowded.Edge
		},
	}
	for _, skip := range avoids {
		des, _ := mv.w.ShortestPathAvoiding(from, destination, skip)
		if len(des) == 0 {
			continue
		}
		remaining := make([]world.DirectedEdge, 0, mv.index+len(des))
		remaining = append(remaining, mv.route.DirectedEdges[:mv.index]...)
		remaining = append(remaining, des...)
		mv.route.DirectedEdges = remaining
		mv.route.ComputeSequences()
		mv.rerouted = true
		log.Debugf("rerouted at node %d around crowded edge %d, %d edges left", from, crowded.Edge, len(des))
		return true
	}
	return false
}

// Planned 出发时规划的有向边序列
func (mv *Movement) Planned() []world.DirectedEdge {
	return mv.planned
}
