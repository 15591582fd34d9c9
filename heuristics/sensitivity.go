package heuristics

import (
	"math"

	"github.com/samber/lo"
)

// 以下均为有效记忆强度v∈[0,1]的函数，v≈0为新手，v≈1为专家

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ProbabilityDistance 选择距离最短（而非转角最少）的概率
func ProbabilityDistance(v float64) float64 {
	return WEIGHT_DISTANCE_NOVICE + (WEIGHT_DISTANCE_EXPERT-WEIGHT_DISTANCE_NOVICE)*
		sigmoid(SIGMOID_STEEPNESS*(v-VIVIDNESS_THRESHOLD))
}

func ProbabilityRegions(v float64) float64 {
	return math.Pow(v, EXPONENT_REGIONS)
}

func ProbabilityDistantLandmarks(v float64) float64 {
	return math.Pow(1-v, EXPONENT_GLOBAL_LANDMARKS)
}

// ProbabilityBarriers 屏障途经点相对局部地标途经点的概率，两者归一化互补
func ProbabilityBarriers(v float64) float64 {
	barrier := math.Pow(1-v, EXPONENT_BARRIERS)
	local := math.Pow(v, EXPONENT_LOCAL_LANDMARKS)
	if sum := barrier + local; sum > 0 {
		return barrier / sum
	}
	return 0.5
}

// LocalLandmarkThreshold 识别局部地标的最低得分
func LocalLandmarkThreshold(v float64) float64 {
	return math.Max(MIN_LANDMARK_SCORE, LOCAL_LM_THRESHOLD_NOVICE+
		(LOCAL_LM_THRESHOLD_EXPERT-LOCAL_LM_THRESHOLD_NOVICE)*math.Pow(v, EXP_THRESHOLD_LOCAL))
}

// GlobalLandmarkWeights 全局地标对距离/转角代价的折减权重，越熟悉越少依赖远距离地标
func GlobalLandmarkWeights(v float64) (distance, angular float64) {
	return math.Pow(1-v, EXP_WEIGHT_GLOBAL_DISTANCE), math.Pow(1-v, EXP_WEIGHT_GLOBAL_ANGULAR)
}

// EasinessThreshold 寻路容易度阈值，专家更早停止寻找途经点
func EasinessThreshold(v float64) float64 {
	v = lo.Clamp(v, 0, 1)
	return EASINESS_THRESHOLD_NOVICE - (EASINESS_THRESHOLD_NOVICE-EASINESS_THRESHOLD_EXPERT)*v
}
