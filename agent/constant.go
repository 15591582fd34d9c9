package agent

import "errors"

// Status 代理当前的活动
type Status int

const (
	STATUS_WAITING Status = iota
	STATUS_WALKING
	STATUS_AT_DESTINATION
	STATUS_GOING_HOME
)

func (s Status) String() string {
	switch s {
	case STATUS_WAITING:
		return "WAITING"
	case STATUS_WALKING:
		return "WALKING"
	case STATUS_AT_DESTINATION:
		return "AT_DESTINATION"
	case STATUS_GOING_HOME:
		return "GOING_HOME"
	}
	return "UNKNOWN"
}

// 流量统计的场景标签
const (
	TAG_LEARNER     = "LEARNER"
	TAG_NOT_LEARNER = "NOT_LEARNER"
)

const (
	// 随机目的地的距离窗口（相对分配的出行距离），找不到时下限乘0.9、上限乘1.1
	DESTINATION_WINDOW_LOWER = 0.9
	DESTINATION_WINDOW_UPPER = 1.0
	WINDOW_SHRINK            = 0.9
	WINDOW_GROW              = 1.1
	MAX_WINDOW_WIDENINGS     = 20
)

var (
	// 错误：代理没有可选的目的地
	ErrNoDestination = errors.New("no known destination available")
	// 错误：代理不在等待状态
	ErrNotWaiting = errors.New("agent is not waiting at home")
)
