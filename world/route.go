package world

import (
	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// Route 一次出行的有向边序列及其派生序列
type Route struct {
	Origin        int32
	Destination   int32
	DirectedEdges []DirectedEdge
	Nodes         []int32
	DualNodes     []int32
	Edges         []int32
	// 规划时经过的途经点（地标、屏障子目标、区域出入口）
	VisitedLocations []int32
}

func NewRoute(origin, destination int32, des []DirectedEdge) *Route {
	r := &Route{Origin: origin, Destination: destination, DirectedEdges: des}
	r.ComputeSequences()
	return r
}

// ComputeSequences 由有向边序列重新生成节点、边与对偶节点序列
func (r *Route) ComputeSequences() {
	r.Nodes = []int32{r.Origin}
	r.Edges = make([]int32, 0, len(r.DirectedEdges))
	for _, d := range r.DirectedEdges {
		r.Nodes = append(r.Nodes, d.To)
		r.Edges = append(r.Edges, d.Edge)
	}
	r.DualNodes = DirectedToDual(r.DirectedEdges)
}

// Contiguous 相邻有向边首尾相接，且从起点到终点
func (r *Route) Contiguous() bool {
	if len(r.DirectedEdges) == 0 {
		return r.Origin == r.Destination
	}
	cur := r.Origin
	for _, d := range r.DirectedEdges {
		if d.From != cur {
			return false
		}
		cur = d.To
	}
	return cur == r.Destination
}

func (r *Route) Length(w *World) float64 {
	return lo.SumBy(r.DirectedEdges, func(d DirectedEdge) float64 {
		return w.Edge(d.Edge).Length
	})
}

// Line 按行进方向拼接的几何
func (r *Route) Line(w *World) orb.LineString {
	line := orb.LineString{w.Node(r.Origin).Point}
	for _, d := range r.DirectedEdges {
		pts := w.IndexedLine(d).Line()
		line = append(line, pts[1:]...)
	}
	return line
}

// Reset 重规划后用实际走过的边替换路线
func (r *Route) Reset(walked []DirectedEdge) {
	r.DirectedEdges = walked
	if len(walked) > 0 {
		r.Destination = walked[len(walked)-1].To
	} else {
		r.Destination = r.Origin
	}
	r.ComputeSequences()
}
