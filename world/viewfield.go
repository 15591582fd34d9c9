package world

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 扇形边界的采样间隔（度）
const viewFieldArcStep = 5.0

// ViewField 从Apex朝向目标的扇形视野，以凸多边形近似
type ViewField struct {
	Apex    orb.Point
	Radius  float64
	Polygon orb.Ring // 逆时针
}

// ViewField a处朝向b、张角angle（度）、半径为ab距离的视野
func (w *World) ViewField(a, b int32, angle float64) *ViewField {
	return NewViewField(w.Node(a).Point, w.Node(b).Point, angle, 0)
}

// NewViewField radius为0时取两点距离
func NewViewField(apex, target orb.Point, angle, radius float64) *ViewField {
	if radius <= 0 {
		radius = planar.Distance(apex, target)
	}
	dir := Bearing(apex, target)
	ring := orb.Ring{apex}
	steps := int(math.Ceil(angle / viewFieldArcStep))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		a := (dir - angle/2 + angle*float64(i)/float64(steps)) * math.Pi / 180
		ring = append(ring, orb.Point{apex[0] + radius*math.Cos(a), apex[1] + radius*math.Sin(a)})
	}
	ring = append(ring, apex)
	return &ViewField{Apex: apex, Radius: radius, Polygon: ring}
}

func (v *ViewField) Contains(p orb.Point) bool {
	return planar.RingContains(v.Polygon, p)
}

// clip Cyrus-Beck裁剪，返回线段落在视野内的部分
func (v *ViewField) clip(p0, p1 orb.Point) (orb.Point, orb.Point, bool) {
	dx, dy := p1[0]-p0[0], p1[1]-p0[1]
	tE, tL := 0.0, 1.0
	for i := 0; i+1 < len(v.Polygon); i++ {
		a, b := v.Polygon[i], v.Polygon[i+1]
		ex, ey := b[0]-a[0], b[1]-a[1]
		if ex == 0 && ey == 0 {
			continue
		}
		// 逆时针多边形的外法向
		nx, ny := ey, -ex
		num := nx*(p0[0]-a[0]) + ny*(p0[1]-a[1])
		den := nx*dx + ny*dy
		if den == 0 {
			if num > 0 {
				return p0, p1, false
			}
			continue
		}
		t := -num / den
		if den < 0 {
			tE = math.Max(tE, t)
		} else {
			tL = math.Min(tL, t)
		}
		if tE > tL {
			return p0, p1, false
		}
	}
	return orb.Point{p0[0] + tE*dx, p0[1] + tE*dy}, orb.Point{p0[0] + tL*dx, p0[1] + tL*dy}, true
}

// Intersection 折线与视野相交时返回相交部分到Apex的最小距离
func (v *ViewField) Intersection(line orb.LineString) (float64, bool) {
	best, found := math.Inf(1), false
	for i := 0; i+1 < len(line); i++ {
		a, b, ok := v.clip(line[i], line[i+1])
		if !ok {
			continue
		}
		found = true
		best = math.Min(best, planar.DistanceFrom(orb.LineString{a, b}, v.Apex))
	}
	return best, found
}

// BarriersInView 与视野相交的屏障及其最近交点距离
func (w *World) BarriersInView(v *ViewField) map[int32]float64 {
	out := make(map[int32]float64)
	for id, b := range w.barriers {
		if len(b.Line) < 2 {
			continue
		}
		if d, ok := v.Intersection(b.Line); ok {
			out[id] = d
		}
	}
	return out
}
