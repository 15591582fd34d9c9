package algo

import "errors"

const (
	// 无前驱时的占位下标
	NO_PREV = -1
)

var (
	// 错误：起终点不连通
	ErrUnreachable = errors.New("unreachable: no path between start and end")
	// 错误：节点下标越界
	ErrNodeOutOfRange = errors.New("node index out of range")
)
