package engine

import "errors"

const (
	// 每日步行总里程的随机波动
	DAILY_METERS_SD = 0.10
	// 单次出行距离相对平均出行距离的波动
	TRIP_DISTANCE_SD = 0.30
	// 释放的里程一半用于回家
	RETURN_TRIP_SHARE = 0.5
	// 按已走里程升序排列后以u^1.5选取，偏向走得少的代理
	SELECTION_EXPONENT = 1.5
	// 选择代理时的最大尝试倍数
	SELECTION_ATTEMPTS = 4
)

var (
	// 错误：没有代理
	ErrNoAgents = errors.New("simulation has no agents")
	// 错误：代理不存在
	ErrUnknownAgent = errors.New("unknown agent")
)
