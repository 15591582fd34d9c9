package world

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 折线上距起点s处的点
func pointAlong(line orb.LineString, s float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if s <= 0 {
		return line[0]
	}
	for i := 1; i < len(line); i++ {
		seg := planar.Distance(line[i-1], line[i])
		if s <= seg && seg > 0 {
			k := s / seg
			return orb.Point{
				line[i-1][0] + k*(line[i][0]-line[i-1][0]),
				line[i-1][1] + k*(line[i][1]-line[i-1][1]),
			}
		}
		s -= seg
	}
	return line[len(line)-1]
}

// Bearing 从a指向b的方位角（度，x轴正向为0，逆时针）
func Bearing(a, b orb.Point) float64 {
	return math.Atan2(b[1]-a[1], b[0]-a[0]) * 180 / math.Pi
}

// AngleDiff 两个方位角之差的绝对值，范围[0,180]
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// 边在节点n处的方向：离开n时的第一段
func leavingBearing(e *Edge, n int32) float64 {
	line := e.Line
	if e.To == n {
		return Bearing(line[len(line)-1], line[len(line)-2])
	}
	return Bearing(line[0], line[1])
}

// 偏转角：沿e到达n后转入f
func deflection(e, f *Edge, n int32) float64 {
	arriving := leavingBearing(e, n) + 180
	leaving := leavingBearing(f, n)
	d := AngleDiff(arriving, leaving)
	return math.Min(math.Max(d, MIN_DEFLECTION_ANGLE), MAX_DEFLECTION_ANGLE)
}
