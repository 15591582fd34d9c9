package heuristics

const (
	// 距离最短与转角最少的分配：新手0.1，专家0.9，在v=0.6附近以陡度10过渡
	WEIGHT_DISTANCE_NOVICE = 0.1
	WEIGHT_DISTANCE_EXPERT = 0.9
	VIVIDNESS_THRESHOLD    = 0.6
	SIGMOID_STEEPNESS      = 10.0
	// 任一最小化概率超过该值时只做最小化
	FORCE_MINIMISATION = 0.90

	EXPONENT_REGIONS          = 1.0
	EXPONENT_GLOBAL_LANDMARKS = 1.0
	EXPONENT_BARRIERS         = 1.0
	EXPONENT_LOCAL_LANDMARKS  = 1.5

	EXP_WEIGHT_GLOBAL_DISTANCE = 1.0
	EXP_WEIGHT_GLOBAL_ANGULAR  = 1.2

	// 局部地标识别阈值：新手0.85，专家0.25
	MIN_LANDMARK_SCORE        = 0.25
	LOCAL_LM_THRESHOLD_NOVICE = 0.85
	LOCAL_LM_THRESHOLD_EXPERT = 0.25
	EXP_THRESHOLD_LOCAL       = 0.6

	// 寻路容易度阈值：新手0.95，专家0.3
	EASINESS_THRESHOLD_NOVICE = 0.95
	EASINESS_THRESHOLD_EXPERT = 0.30

	// 屏障感知均值落在(0.95, 1.05)之外才算有偏好
	NATURAL_PREFERENCE_BELOW = 0.95
	SEVERING_AVERSION_ABOVE  = 1.05
)
