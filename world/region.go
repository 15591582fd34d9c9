package world

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 按节点的区域编号划分区域，跨区域的边两端形成出入口
func (w *World) buildRegions() {
	for _, n := range w.nodes {
		r, ok := w.regions[n.Region]
		if !ok {
			r = &Region{ID: n.Region, Bound: orb.Bound{Min: n.Point, Max: n.Point}}
			w.regions[n.Region] = r
			w.regionIDs = append(w.regionIDs, n.Region)
		}
		r.Nodes = append(r.Nodes, n.ID)
		r.Bound = r.Bound.Extend(n.Point)
	}
	slices.Sort(w.regionIDs)
	for _, e := range w.edges {
		if e.Region != NO_REGION {
			w.regions[e.Region].Edges = append(w.regions[e.Region].Edges, e.ID)
			continue
		}
		from, to := w.Node(e.From), w.Node(e.To)
		from.Gateway, to.Gateway = true, true
		w.regions[from.Region].Gateways = append(w.regions[from.Region].Gateways, Gateway{
			Edge: e.ID, Exit: from.ID, Entry: to.ID, RegionFrom: from.Region, RegionTo: to.Region,
		})
		w.regions[to.Region].Gateways = append(w.regions[to.Region].Gateways, Gateway{
			Edge: e.ID, Exit: to.ID, Entry: from.ID, RegionFrom: to.Region, RegionTo: from.Region,
		})
	}
}

func (w *World) addBuildings(records []BuildingRecord) {
	rc := w.cfg.RouteChoice
	for _, r := range records {
		b := &Building{
			ID:             r.ID,
			Point:          orb.Point{r.X, r.Y},
			Region:         r.Region,
			LocalScore:     r.LocalScore,
			GlobalScore:    r.GlobalScore,
			LocalLandmark:  r.LocalScore > 0 && r.LocalScore >= rc.LocalLandmarkThresholdCommunity,
			GlobalLandmark: r.GlobalScore > 0 && r.GlobalScore >= rc.GlobalLandmarkThresholdCommunity,
		}
		w.buildings[b.ID] = b
		region, ok := w.regions[b.Region]
		if !ok {
			continue
		}
		region.Buildings = append(region.Buildings, b.ID)
		if b.LocalLandmark {
			region.LocalLandmarks = append(region.LocalLandmarks, b.ID)
		}
		if b.GlobalLandmark {
			region.GlobalLandmarks = append(region.GlobalLandmarks, b.ID)
		}
	}
	for _, r := range w.regions {
		slices.Sort(r.Buildings)
		slices.Sort(r.LocalLandmarks)
		slices.Sort(r.GlobalLandmarks)
	}
}

// 屏障与沿线边的关联，未给出关联边时按几何距离匹配
func (w *World) attachBarriers(records []BarrierRecord) error {
	for _, r := range records {
		t, err := ParseBarrierType(r.Type)
		if err != nil {
			return fmt.Errorf("barrier %d: %w", r.ID, err)
		}
		b := &Barrier{ID: r.ID, Type: t, Edges: slices.Clone(r.Edges)}
		for _, p := range r.Line {
			b.Line = append(b.Line, orb.Point{p[0], p[1]})
		}
		if len(b.Edges) == 0 && len(b.Line) >= 2 {
			for _, e := range w.edges {
				if planar.DistanceFrom(b.Line, e.Centroid()) <= BARRIER_EDGE_DISTANCE {
					b.Edges = append(b.Edges, e.ID)
				}
			}
		}
		w.barriers[b.ID] = b
		regionsTouched := NewSet()
		for _, id := range b.Edges {
			e := w.Edge(id)
			if e == nil {
				return fmt.Errorf("barrier %d edge %d: %w", r.ID, id, ErrUnknownEdge)
			}
			e.Barriers = append(e.Barriers, b.ID)
			switch {
			case t == BARRIER_WATER:
				e.Water = append(e.Water, b.ID)
				e.PositiveBarriers = append(e.PositiveBarriers, b.ID)
			case t == BARRIER_PARK:
				e.Parks = append(e.Parks, b.ID)
				e.PositiveBarriers = append(e.PositiveBarriers, b.ID)
			case t.Negative():
				e.NegativeBarriers = append(e.NegativeBarriers, b.ID)
			}
			if e.Region != NO_REGION {
				regionsTouched.Add(e.Region)
			}
		}
		for _, rid := range regionsTouched.Sorted() {
			w.regions[rid].Barriers = append(w.regions[rid].Barriers, b.ID)
		}
	}
	return nil
}

// RegionEdges 区域内部的边（两端都在区域内）
func (w *World) RegionEdges(id int32) Set {
	r := w.regions[id]
	if r == nil {
		return NewSet()
	}
	return NewSet(r.Edges...)
}
