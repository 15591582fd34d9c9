package world

// 地图的原始记录，JSON文件与mongo文档共用

type NodeRecord struct {
	ID     int32   `json:"id" bson:"id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Region int32   `json:"region" bson:"region"`
}

type EdgeRecord struct {
	ID      int32        `json:"id" bson:"id"`
	From    int32        `json:"from" bson:"from"`
	To      int32        `json:"to" bson:"to"`
	Highway string       `json:"highway" bson:"highway"`
	Line    [][2]float64 `json:"line,omitempty" bson:"line,omitempty"`
	// 为0时按几何计算
	Length float64 `json:"length,omitempty" bson:"length,omitempty"`
}

type BarrierRecord struct {
	ID    int32        `json:"id" bson:"id"`
	Type  string       `json:"type" bson:"type"`
	Line  [][2]float64 `json:"line" bson:"line"`
	Edges []int32      `json:"edges,omitempty" bson:"edges,omitempty"`
}

type BuildingRecord struct {
	ID          int32   `json:"id" bson:"id"`
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
	Region      int32   `json:"region" bson:"region"`
	LocalScore  float64 `json:"local_score" bson:"local_score"`
	GlobalScore float64 `json:"global_score" bson:"global_score"`
}

// SightLineRecord 节点到远距离地标的视线
type SightLineRecord struct {
	Node     int32 `json:"node" bson:"node"`
	Building int32 `json:"building" bson:"building"`
}

type Dataset struct {
	Nodes      []NodeRecord      `json:"nodes"`
	Edges      []EdgeRecord      `json:"edges"`
	Barriers   []BarrierRecord   `json:"barriers,omitempty"`
	Buildings  []BuildingRecord  `json:"buildings,omitempty"`
	SightLines []SightLineRecord `json:"sight_lines,omitempty"`
}
