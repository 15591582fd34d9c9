package world

import (
	"github.com/paulmach/orb"
)

type Node struct {
	ID     int32
	Point  orb.Point
	Region int32
	// 关联边
	Edges []int32
	// 是否为区域出入口
	Gateway bool
	// DistanceNodeLandmark范围内的局部地标
	LocalLandmarks []int32
	// 作为目的地时的锚点地标及其到该点的距离，按地标全局得分降序
	Anchors         []int32
	AnchorDistances []float64
	// 从该点可见的远距离地标
	VisibleLandmarks []int32
	// 采样最短路的经过次数，归一化到[0,1]
	Centrality float64
}

type Edge struct {
	ID       int32
	From     int32
	To       int32
	Length   float64
	Highway  string
	RoadType RoadType
	Line     orb.LineString
	// 两端在同一区域时为该区域，否则为NO_REGION
	Region int32

	Barriers         []int32
	PositiveBarriers []int32
	NegativeBarriers []int32
	Water            []int32
	Parks            []int32
}

func (e *Edge) Other(n int32) int32 {
	if e.From == n {
		return e.To
	}
	return e.From
}

func (e *Edge) HasEndpoint(n int32) bool {
	return e.From == n || e.To == n
}

// Centroid 折线按长度的中点
func (e *Edge) Centroid() orb.Point {
	return pointAlong(e.Line, e.Length/2)
}

// DirectedEdge 边及其行进方向
type DirectedEdge struct {
	Edge int32
	From int32
	To   int32
}

func (d DirectedEdge) Reverse() DirectedEdge {
	return DirectedEdge{Edge: d.Edge, From: d.To, To: d.From}
}

// DualNode 对偶图节点，ID与原始边一致
type DualNode struct {
	ID    int32
	Point orb.Point
}

// Turn 对偶图中的一条边：在Junction处从边From转向边To
type Turn struct {
	From       int32
	To         int32
	Junction   int32
	Deflection float64
}

// Gateway 两个区域之间的出入口，Exit在RegionFrom内，Entry在RegionTo内
type Gateway struct {
	Edge       int32
	Exit       int32
	Entry      int32
	RegionFrom int32
	RegionTo   int32
}

type Region struct {
	ID              int32
	Nodes           []int32
	Edges           []int32
	Gateways        []Gateway
	Barriers        []int32
	Buildings       []int32
	LocalLandmarks  []int32
	GlobalLandmarks []int32
	Bound           orb.Bound
}

type Barrier struct {
	ID    int32
	Type  BarrierType
	Line  orb.LineString
	Edges []int32
}

type Building struct {
	ID          int32
	Point       orb.Point
	Region      int32
	LocalScore  float64
	GlobalScore float64
	// 得分达到社区阈值的建筑才是地标
	LocalLandmark  bool
	GlobalLandmark bool
}
