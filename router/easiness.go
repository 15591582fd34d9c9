package router

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// 以a、b为直径的圆内建筑中，不是已知局部地标的比例；圆内没有建筑时为0
func (t *Trip) buildingComplexity(a, b int32) float64 {
	if a == b {
		return 0
	}
	pa, pb := t.w.Node(a).Point, t.w.Node(b).Point
	center := orb.Point{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2}
	buildings := t.w.BuildingsWithin(center, t.w.Distance(a, b)/2)
	if len(buildings) == 0 {
		return 0
	}
	landmarks := lo.CountBy(buildings, func(id int32) bool { return t.landmarks.Has(id) })
	return float64(len(buildings)-landmarks) / float64(len(buildings))
}

// WayfindingEasiness 从node前往终点的寻路容易度
// 1 - (距离复杂度 + 建筑复杂度)/2，距离复杂度以城市范围的长边归一化
func (t *Trip) WayfindingEasiness(node int32) float64 {
	b := t.w.Bound()
	extent := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	distance := 1.0
	if extent > 0 {
		distance = math.Min(t.w.Distance(node, t.Destination)/extent, 1)
	}
	return 1 - (distance+t.buildingComplexity(node, t.Destination))/2
}

// WayfindingEasinessRegion 区域内从node前往出口的寻路容易度，距离复杂度以整次出行的直线距离归一化
func (t *Trip) WayfindingEasinessRegion(node, exit int32) float64 {
	distance := 1.0
	if total := t.w.Distance(t.Origin, t.Destination); total > 0 {
		distance = math.Min(t.w.Distance(node, exit)/total, 1)
	}
	return 1 - (distance+t.buildingComplexity(node, exit))/2
}
