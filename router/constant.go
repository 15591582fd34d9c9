package router

import "errors"

const (
	// 转角代价的范围（度）
	MIN_DEFLECTION_ANGLE = 0.0
	MAX_DEFLECTION_ANGLE = 180.0

	// 途经点打分：局部地标程度与朝向目的地的距离收益
	SCORE_WEIGHT                = 0.60
	DISTANCE_GAIN_WEIGHT        = 0.40
	SCORE_WEIGHT_REGION         = 0.50
	DISTANCE_GAIN_WEIGHT_REGION = 0.50

	// 显著节点分位数每次下调0.05，低于0.5时放弃
	SALIENT_PERCENTILE_STEP = 0.05
	MIN_SALIENT_PERCENTILE  = 0.50

	// 没有锚点地标时全局地标程度的折减
	NO_ANCHOR_DISCOUNT = 0.90
	// 感知误差的下限，避免出现非正代价
	MIN_PERCEPTION_ERROR = 0.01

	// 对偶搜索的虚拟起点
	VIRTUAL_START = -1
)

var (
	// 错误：全路网上也无法到达
	ErrNoRoute = errors.New("destination unreachable on the community network")
	// 错误：节点不存在
	ErrUnknownNode = errors.New("unknown node")
	// 错误：途经点序列为空
	ErrEmptySequence = errors.New("empty waypoint sequence")
)
