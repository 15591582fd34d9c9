package heuristics

import "fmt"

// Minimisation 路径代价的度量
type Minimisation int

const (
	MINIMISATION_NONE Minimisation = iota
	// 道路距离
	ROAD_DISTANCE
	// 累计转角
	ANGULAR_CHANGE
)

func (m Minimisation) String() string {
	switch m {
	case ROAD_DISTANCE:
		return "road_distance"
	case ANGULAR_CHANGE:
		return "angular_change"
	default:
		return "none"
	}
}

// Subgoal 途经点的来源，两者互斥
type Subgoal int

const (
	SUBGOAL_NONE Subgoal = iota
	SUBGOAL_LOCAL_LANDMARKS
	SUBGOAL_BARRIERS
)

func (s Subgoal) String() string {
	switch s {
	case SUBGOAL_LOCAL_LANDMARKS:
		return "local_landmarks"
	case SUBGOAL_BARRIERS:
		return "barriers"
	default:
		return "none"
	}
}

// BarrierDisposition 对屏障的态度，可组合
type BarrierDisposition uint8

const (
	// 偏好沿自然屏障（水体、公园）行走
	PREFER_NATURAL BarrierDisposition = 1 << iota
	// 回避割裂性屏障（主干道、铁路）
	AVOID_SEVERING
)

func (b BarrierDisposition) Has(f BarrierDisposition) bool {
	return b&f != 0
}

// Traits 一次出行采用的寻路策略
type Traits struct {
	// 非NONE时只做该度量的最小化，忽略其余所有要素
	OnlyMinimising Minimisation
	// 使用环境要素时分段求解采用的度量
	Local Minimisation

	Subgoal          Subgoal
	Regions          bool
	DistantLandmarks bool

	Barriers     BarrierDisposition
	NaturalMean  float64
	NaturalSD    float64
	SeveringMean float64
	SeveringSD   float64

	// 识别局部地标的最低得分
	LocalThreshold float64
	// 全局地标对边代价的折减权重
	GlobalWeightDistance float64
	GlobalWeightAngular  float64
	// 途经点搜索在容易度达到该值时停止
	EasinessThreshold       float64
	EasinessThresholdRegion float64
}

// Minimising 是否只做最小化
func (t *Traits) Minimising() bool {
	return t.OnlyMinimising != MINIMISATION_NONE
}

// Metric 当前分段使用的度量
func (t *Traits) Metric() Minimisation {
	if t.Minimising() {
		return t.OnlyMinimising
	}
	if t.Local == MINIMISATION_NONE {
		return ROAD_DISTANCE
	}
	return t.Local
}

// UsingElements 是否使用了任何环境要素（区域、途经点、远距离地标）
func (t *Traits) UsingElements() bool {
	return !t.Minimising() && (t.Regions || t.DistantLandmarks || t.Subgoal != SUBGOAL_NONE)
}

// GlobalLandmarkWeight angular为true时返回转角代价的权重
func (t *Traits) GlobalLandmarkWeight(angular bool) float64 {
	if angular {
		return t.GlobalWeightAngular
	}
	return t.GlobalWeightDistance
}

func (t Traits) String() string {
	if t.Minimising() {
		return fmt.Sprintf("only %v", t.OnlyMinimising)
	}
	return fmt.Sprintf("local %v, subgoal %v, regions %v, distant %v, barriers %b",
		t.Local, t.Subgoal, t.Regions, t.DistantLandmarks, t.Barriers)
}
