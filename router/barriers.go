package router

import (
	"cmp"
	"slices"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb/planar"
)

type barrierCandidate struct {
	barrier  int32
	distance float64
}

// 视野内、已知、未访问且不比终点更远的屏障，按距离从远到近
func (t *Trip) validBarriers(current int32, visited, known world.Set) []barrierCandidate {
	// 当前所在边上的屏障视为已访问
	for _, e := range t.w.Node(current).Edges {
		visited.Add(t.w.Edge(e).Barriers...)
	}
	limit := t.w.Distance(current, t.Destination)
	view := t.w.ViewField(current, t.Destination, t.rc.ViewFieldAngle)
	out := make([]barrierCandidate, 0)
	for id, d := range t.w.BarriersInView(view) {
		if visited.Has(id) || !known.Has(id) || d > limit {
			continue
		}
		out = append(out, barrierCandidate{barrier: id, distance: d})
	}
	slices.SortFunc(out, func(a, b barrierCandidate) int {
		if c := cmp.Compare(b.distance, a.distance); c != 0 {
			return c
		}
		return cmp.Compare(a.barrier, b.barrier)
	})
	return out
}

// 屏障沿线已知边中最近的可用边：质心不比终点远，不与已有序列节点或当前节点相接
func (t *Trip) edgeGoal(b *world.Barrier, current int32, sequence []int32, network *cognition.KnownNetwork) (int32, bool) {
	here := t.w.Node(current).Point
	limit := t.w.Distance(current, t.Destination)
	best, bestDistance, found := int32(0), 0.0, false
	for _, id := range b.Edges {
		if !network.HasEdge(id) {
			continue
		}
		e := t.w.Edge(id)
		if e.HasEndpoint(current) || slices.ContainsFunc(sequence, e.HasEndpoint) {
			continue
		}
		d := planar.Distance(here, e.Centroid())
		if d > limit {
			continue
		}
		if !found || d < bestDistance || (d == bestDistance && id < best) {
			best, bestDistance, found = id, d, true
		}
	}
	return best, found
}

// 按水体、公园、其他的顺序选择子目标，同类内保持由远到近
func (t *Trip) barrierSubGoal(current int32, candidates []barrierCandidate, sequence []int32) (edge, barrier int32, ok bool) {
	network := t.network
	var groups [3][][2]int32
	for _, c := range candidates {
		b := t.w.Barrier(c.barrier)
		e, found := t.edgeGoal(b, current, sequence, network)
		if !found {
			continue
		}
		g := 2
		switch b.Type {
		case world.BARRIER_WATER:
			g = 0
		case world.BARRIER_PARK:
			g = 1
		}
		groups[g] = append(groups[g], [2]int32{e, c.barrier})
	}
	for _, g := range groups {
		if len(g) > 0 {
			return g[0][0], g[0][1], true
		}
	}
	return 0, 0, false
}

// BarrierSequence 以视野内的已知屏障为子目标的途经点序列[起点, 子目标..., 终点]
func (t *Trip) BarrierSequence() []int32 {
	sequence := []int32{t.Origin}
	current := t.Origin
	visited := world.NewSet()
	known := t.m.KnownBarriers()
	for current != t.Destination {
		candidates := t.validBarriers(current, visited, known)
		if len(candidates) == 0 {
			break
		}
		edge, barrier, ok := t.barrierSubGoal(current, candidates, sequence)
		if !ok {
			break
		}
		e := t.w.Edge(edge)
		next := e.To
		if t.w.Distance(current, e.From) < t.w.Distance(current, e.To) {
			next = e.From
		}
		sequence = append(sequence, next)
		visited.Add(barrier)
		current = next
	}
	if current != t.Destination {
		sequence = append(sequence, t.Destination)
	}
	log.Debugf("barrier sequence %d->%d: %v", t.Origin, t.Destination, sequence)
	return sequence
}
