package cognition

import "errors"

const (
	// 低于该值的记忆密度视为完全遗忘
	DECAY_EPSILON = 1e-6
	// 空间能力在均值附近的均匀扰动幅度
	SPATIAL_ABILITY_SPREAD = 0.5
	// 缓冲区圆的分段数
	BUFFER_SEGMENTS = 16
	// 视野扇形射线的间隔（度）
	CONE_RAY_STEP = 10.0
	// 找不到工作地时放宽距离范围的次数
	MAX_WORK_RELAXATIONS = 6
)

var (
	ErrNotFormed     = errors.New("cognitive map not formed")
	ErrNoWorkplace   = errors.New("no workplace within distance")
	ErrNoPlannedTrip = errors.New("planner returned no route")
)
