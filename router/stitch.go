package router

import (
	"fmt"
	"slices"

	"git.fiblab.net/sim/wayfinding/world"
)

// Stitch 依次求解相邻途经点之间的分段并拼接成一条从首点到末点的路线
// 每段避开已用过的边；失败时放开已用边重试，仍失败则跳过该途经点（末点除外），
// 跳过次数超过maxBacktracks时返回ErrNoRoute
func Stitch(waypoints []int32, solve SegmentSolver, maxBacktracks int) ([]world.DirectedEdge, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptySequence
	}
	origin := waypoints[0]
	path := make([]world.DirectedEdge, 0)
	current := origin
	pending := slices.Clone(waypoints[1:])
	backtracks := 0
	for len(pending) > 0 {
		target := pending[0]
		if target == current {
			pending = pending[1:]
			continue
		}
		// 目标已在路线上：退回到该点
		if i, ok := positionOf(origin, path, target); ok {
			path = path[:i]
			current = target
			pending = pending[1:]
			continue
		}
		used := world.NewSet()
		for _, d := range path {
			used.Add(d.Edge)
		}
		des, _ := solve(current, target, used)
		if des == nil {
			des, _ = solve(current, target, nil)
		}
		if des == nil {
			if len(pending) > 1 && backtracks < maxBacktracks {
				backtracks++
				log.Debugf("skip waypoint %d after failed segment from %d", target, current)
				pending = pending[1:]
				continue
			}
			return nil, fmt.Errorf("segment %d->%d: %w", current, target, ErrNoRoute)
		}
		path = append(path, des...)
		current = target
		pending = pending[1:]
	}
	return RemoveCycles(origin, path), nil
}

// 节点在路线节点序列中的位置（即到达它之前的边数）
func positionOf(origin int32, path []world.DirectedEdge, node int32) (int, bool) {
	if node == origin {
		return 0, true
	}
	for i, d := range path {
		if d.To == node {
			return i + 1, true
		}
	}
	return 0, false
}

// RemoveCycles 删除路线中回到已经过节点形成的环，结果不重复经过任何节点
func RemoveCycles(origin int32, des []world.DirectedEdge) []world.DirectedEdge {
	out := make([]world.DirectedEdge, 0, len(des))
	at := map[int32]int{origin: 0}
	for _, d := range des {
		if i, ok := at[d.To]; ok {
			for _, r := range out[i:] {
				delete(at, r.To)
			}
			out = out[:i]
			at[d.To] = i
			continue
		}
		out = append(out, d)
		at[d.To] = len(out)
	}
	return out
}
