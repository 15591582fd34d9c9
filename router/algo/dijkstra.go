package algo

import (
	"container/heap"
	"math"

	"github.com/samber/lo"
)

// Dijkstra 标号设定最短路，代价由expand给出
// 不可达时返回nil与+Inf
func Dijkstra[ET any](start, end int, expand Expander[ET]) ([]PathItem[ET], float64) {
	if start == end {
		return []PathItem[ET]{{Node: start}}, 0
	}
	return search(start, func(n int) bool { return n == end }, expand, nil)
}

// DijkstraTo 搜索到第一个满足goal的节点即停止
func DijkstraTo[ET any](start int, goal func(int) bool, expand Expander[ET]) ([]PathItem[ET], float64) {
	return search(start, goal, expand, nil)
}

// AStar h必须是可采纳的（不高估剩余代价）
func AStar[ET any](start, end int, expand Expander[ET], h func(int) float64) ([]PathItem[ET], float64) {
	if start == end {
		return []PathItem[ET]{{Node: start}}, 0
	}
	return search(start, func(n int) bool { return n == end }, expand, h)
}

func search[ET any](start int, goal func(int) bool, expand Expander[ET], h func(int) float64) ([]PathItem[ET], float64) {
	wrappers := map[int]*Wrapper[ET]{start: {Node: start, PrevNode: NO_PREV}}
	closed := make(map[int]struct{})
	openSet := make(PriorityQueue, 1)
	openSetMap := make(map[int]*Item, 1) // openSet value -> openSet item
	openSet[0] = &Item{Value: start, Priority: 0, Index: 0}
	openSetMap[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		delete(openSetMap, cur)
		closed[cur] = struct{}{}
		w := wrappers[cur]
		if goal(cur) {
			return reconstructPath(wrappers, cur)
		}
		for _, nb := range expand(w) {
			if !isValidCost(nb.Cost) {
				continue
			}
			if _, ok := closed[nb.Node]; ok {
				continue
			}
			tentative := w.Cost + nb.Cost
			nw, ok := wrappers[nb.Node]
			if ok && tentative >= nw.Cost {
				continue
			}
			if !ok {
				nw = &Wrapper[ET]{Node: nb.Node}
				wrappers[nb.Node] = nw
			}
			nw.Cost = tentative
			nw.PrevNode = cur
			nw.PrevEdge = nb.Edge
			nw.HasPrev = true
			f := tentative
			if h != nil {
				f += h(nb.Node)
			}
			if item, ok := openSetMap[nb.Node]; ok {
				// 已在堆中，修改优先级
				item.Priority = f
				heap.Fix(&openSet, item.Index)
			} else {
				item := &Item{Value: nb.Node, Priority: f}
				heap.Push(&openSet, item)
				openSetMap[nb.Node] = item
			}
		}
	}
	return nil, math.Inf(0)
}

func reconstructPath[ET any](wrappers map[int]*Wrapper[ET], end int) ([]PathItem[ET], float64) {
	pathBeforeReversed := []PathItem[ET]{{Node: end}}
	cur := wrappers[end]
	for cur.HasPrev {
		pathBeforeReversed = append(pathBeforeReversed, PathItem[ET]{
			Node:     cur.PrevNode,
			EdgeAttr: cur.PrevEdge,
		})
		cur = wrappers[cur.PrevNode]
	}
	return lo.Reverse(pathBeforeReversed), wrappers[end].Cost
}
