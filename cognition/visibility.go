package cognition

import (
	"math"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb"
)

// 以c为圆心的近似圆
func circle(c orb.Point, radius float64) orb.Polygon {
	ring := make(orb.Ring, 0, BUFFER_SEGMENTS+1)
	for i := 0; i < BUFFER_SEGMENTS; i++ {
		a := 2 * math.Pi * float64(i) / BUFFER_SEGMENTS
		ring = append(ring, orb.Point{c[0] + radius*math.Cos(a), c[1] + radius*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// 线段两侧各偏移radius的矩形
func corridor(a, b orb.Point, radius float64) (orb.Polygon, bool) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil, false
	}
	nx, ny := -dy/l*radius, dx/l*radius
	ring := orb.Ring{
		{a[0] - nx, a[1] - ny},
		{b[0] - nx, b[1] - ny},
		{b[0] + nx, b[1] + ny},
		{a[0] + nx, a[1] + ny},
		{a[0] - nx, a[1] - ny},
	}
	return orb.Polygon{ring}, true
}

// 站在to处、沿from->to方向看出去的视锥
func cone(from, to orb.Point, angle, distance float64) (orb.Polygon, bool) {
	if from == to {
		return nil, false
	}
	heading := math.Atan2(to[1]-from[1], to[0]-from[0])
	ring := orb.Ring{to}
	limit := int(angle / 2)
	for i := -limit; i <= limit; i += int(CONE_RAY_STEP) {
		a := heading + float64(i)*math.Pi/180
		ring = append(ring, orb.Point{to[0] + distance*math.Cos(a), to[1] + distance*math.Sin(a)})
	}
	ring = append(ring, to)
	return orb.Polygon{ring}, true
}

// VisibilitySpace 一次出行中看到的空间：节点缓冲区、沿路走廊、朝向下一节点的视锥
func VisibilitySpace(w *world.World, r *world.Route, cfg config.Learning) orb.MultiPolygon {
	mp := make(orb.MultiPolygon, 0)
	for i, id := range r.Nodes {
		p := w.Node(id).Point
		mp = append(mp, circle(p, cfg.BufferRadius))
		if i+1 < len(r.Nodes) {
			if c, ok := cone(p, w.Node(r.Nodes[i+1]).Point, cfg.ConeAngle, cfg.ConeDistance); ok {
				mp = append(mp, c)
			}
		}
	}
	line := r.Line(w)
	for i := 0; i+1 < len(line); i++ {
		if c, ok := corridor(line[i], line[i+1], cfg.BufferRadius); ok {
			mp = append(mp, c)
		}
	}
	return mp
}
