package router

import (
	"git.fiblab.net/sim/wayfinding/router/algo"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
)

// 区域层面的最短序列，代价为区域范围中心之间的距离
// known为true时只经过已知区域（终点区域除外）
func (t *Trip) regionPath(from, to int32, known bool) []int32 {
	expand := func(cur *algo.Wrapper[world.Gateway]) []algo.Neighbor[world.Gateway] {
		r := t.w.Region(int32(cur.Node))
		out := make([]algo.Neighbor[world.Gateway], 0, len(r.Gateways))
		seen := world.NewSet()
		for _, g := range r.Gateways {
			if seen.Has(g.RegionTo) {
				continue
			}
			next := t.w.Region(g.RegionTo)
			if next == nil || (known && g.RegionTo != to && !t.m.IsRegionKnown(g.RegionTo)) {
				continue
			}
			seen.Add(g.RegionTo)
			out = append(out, algo.Neighbor[world.Gateway]{
				Node: int(g.RegionTo),
				Edge: g,
				Cost: planar.Distance(r.Bound.Center(), next.Bound.Center()),
			})
		}
		return out
	}
	items, _ := algo.Dijkstra(int(from), int(to), expand)
	return lo.Map(items, func(it algo.PathItem[world.Gateway], _ int) int32 { return int32(it.Node) })
}

// 从current离开区域from进入区域to的出入口，使到出口与入口到终点的距离和最小，优先走已知的边
func (t *Trip) chooseGateway(current, from, to int32) (world.Gateway, bool) {
	candidates := lo.Filter(t.w.Region(from).Gateways, func(g world.Gateway, _ int) bool {
		return g.RegionTo == to
	})
	network := t.network
	if known := lo.Filter(candidates, func(g world.Gateway, _ int) bool {
		return network.HasEdge(g.Edge)
	}); len(known) > 0 {
		candidates = known
	}
	if len(candidates) == 0 {
		return world.Gateway{}, false
	}
	return lo.MinBy(candidates, func(a, b world.Gateway) bool {
		return t.gatewayCost(current, a) < t.gatewayCost(current, b)
	}), true
}

func (t *Trip) gatewayCost(current int32, g world.Gateway) float64 {
	return t.w.Distance(current, g.Exit) + t.w.Distance(g.Entry, t.Destination)
}

// RegionSequence 区域导航的出入口序列[起点, 出口1, 入口1, ..., 终点]
// 找不到区域序列时返回nil
func (t *Trip) RegionSequence() []int32 {
	from, to := t.w.Node(t.Origin).Region, t.w.Node(t.Destination).Region
	if from == world.NO_REGION || to == world.NO_REGION || from == to {
		return nil
	}
	regions := t.regionPath(from, to, true)
	if len(regions) == 0 {
		regions = t.regionPath(from, to, false)
	}
	if len(regions) < 2 {
		return nil
	}
	sequence := []int32{t.Origin}
	current := t.Origin
	for i := 0; i+1 < len(regions); i++ {
		g, ok := t.chooseGateway(current, regions[i], regions[i+1])
		if !ok {
			return nil
		}
		sequence = append(sequence, g.Exit, g.Entry)
		current = g.Entry
	}
	sequence = append(sequence, t.Destination)
	log.Debugf("region sequence %d->%d via regions %v: %v", t.Origin, t.Destination, regions, sequence)
	return sequence
}
