package algo_test

import (
	"container/heap"
	"math"
	"testing"

	"git.fiblab.net/sim/wayfinding/router/algo"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

// 邻接表形式的小图，边代价即边的值
func adjacency(edges map[int][]algo.Neighbor[float64]) algo.Expander[float64] {
	return func(cur *algo.Wrapper[float64]) []algo.Neighbor[float64] {
		return edges[cur.Node]
	}
}

func nb(to int, cost float64) algo.Neighbor[float64] {
	return algo.Neighbor[float64]{Node: to, Edge: cost, Cost: cost}
}

func TestPriorityQueueOrderAfterFix(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	for _, p := range []float64{5, 3, 8, 1} {
		heap.Push(&pq, &algo.Item{Value: int(p), Priority: p})
	}
	// 8的优先级降到0后最先弹出
	for _, item := range pq {
		if item.Value == 8 {
			item.Priority = 0
			heap.Fix(&pq, item.Index)
		}
	}
	var order []int
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(*algo.Item).Value)
	}
	assert.Equal(t, []int{8, 1, 3, 5}, order)
}

func TestDijkstraUnreachable(t *testing.T) {
	expand := adjacency(map[int][]algo.Neighbor[float64]{
		0: {nb(1, 1)},
		1: {nb(0, 1)},
		2: {nb(3, 1)},
	})
	path, cost := algo.Dijkstra(0, 3, expand)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(cost, 1))

	path, cost = algo.DijkstraTo(0, func(n int) bool { return n >= 2 }, expand)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(cost, 1))
}

func TestDijkstraSkipsInvalidCosts(t *testing.T) {
	// 负代价与Inf代价的边不可用，只能走1-2-3
	expand := adjacency(map[int][]algo.Neighbor[float64]{
		0: {nb(3, -5), nb(3, math.Inf(1)), nb(1, 2)},
		1: {nb(2, 2)},
		2: {nb(3, 2)},
	})
	path, cost := algo.Dijkstra(0, 3, expand)
	assert.Equal(t, 6.0, cost)
	assert.Equal(t, []int{0, 1, 2, 3}, lo.Map(path, func(it algo.PathItem[float64], _ int) int { return it.Node }))
	// 终点项没有离开的边
	assert.Zero(t, path[len(path)-1].EdgeAttr)

	// 只有非法边时不可达
	path, cost = algo.Dijkstra(0, 1, adjacency(map[int][]algo.Neighbor[float64]{0: {nb(1, math.NaN())}}))
	assert.Nil(t, path)
	assert.True(t, math.IsInf(cost, 1))
}

func TestDijkstraSameStartEnd(t *testing.T) {
	path, cost := algo.Dijkstra(4, 4, adjacency(nil))
	assert.Zero(t, cost)
	assert.Equal(t, []algo.PathItem[float64]{{Node: 4}}, path)
}

func TestAStarMatchesDijkstra(t *testing.T) {
	// 一条直线上的节点，间距1，另有一条从0到9代价12的直达边
	edges := map[int][]algo.Neighbor[float64]{0: {nb(9, 12)}}
	for i := 0; i < 9; i++ {
		edges[i] = append(edges[i], nb(i+1, 1))
	}
	expand := adjacency(edges)
	_, dc := algo.Dijkstra(0, 9, expand)
	path, ac := algo.AStar(0, 9, expand, func(n int) float64 { return float64(9 - n) })
	assert.Equal(t, 9.0, dc)
	assert.Equal(t, dc, ac)
	assert.Len(t, path, 10)
}
