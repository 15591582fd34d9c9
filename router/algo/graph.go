package algo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type node[NT any] struct {
	p    orb.Point
	attr NT
}

type edge[ET any] struct {
	v    float64
	attr ET
}

// SearchGraph 静态带权有向图
// 构建完成后只读，可被多个goroutine同时搜索
type SearchGraph[NT any, ET any] struct {
	// 邻接表，in node -> out node -> edge
	edges []map[int]edge[ET]
	nodes []node[NT]
}

func NewSearchGraph[NT any, ET any]() *SearchGraph[NT, ET] {
	return &SearchGraph[NT, ET]{
		edges: make([]map[int]edge[ET], 0),
		nodes: make([]node[NT], 0),
	}
}

func (g *SearchGraph[NT, ET]) InitNode(p orb.Point, attr NT) int {
	g.nodes = append(g.nodes, node[NT]{p: p, attr: attr})
	g.edges = append(g.edges, make(map[int]edge[ET]))
	return len(g.nodes) - 1
}

func (g *SearchGraph[NT, ET]) InitEdge(from, to int, length float64, attr ET) error {
	if from >= len(g.edges) || to >= len(g.edges) {
		return fmt.Errorf("edge %d->%d with %d nodes: %w", from, to, len(g.nodes), ErrNodeOutOfRange)
	}
	g.edges[from][to] = edge[ET]{v: length, attr: attr}
	return nil
}

func (g *SearchGraph[NT, ET]) Len() int {
	return len(g.nodes)
}

func (g *SearchGraph[NT, ET]) NodeAttr(i int) NT {
	return g.nodes[i].attr
}

func (g *SearchGraph[NT, ET]) Position(i int) orb.Point {
	return g.nodes[i].p
}

func (g *SearchGraph[NT, ET]) GetEdgeLengthAndAttr(from, to int) (float64, ET, bool) {
	e, ok := g.edges[from][to]
	return e.v, e.attr, ok
}

// Expander 按原始边长扩展，skip返回true的边被跳过
func (g *SearchGraph[NT, ET]) Expander(skip func(ET) bool) Expander[ET] {
	return func(cur *Wrapper[ET]) []Neighbor[ET] {
		out := make([]Neighbor[ET], 0, len(g.edges[cur.Node]))
		for to, e := range g.edges[cur.Node] {
			if skip != nil && skip(e.attr) {
				continue
			}
			out = append(out, Neighbor[ET]{Node: to, Edge: e.attr, Cost: e.v})
		}
		return out
	}
}

// ShortestPath A Star算法求最短路，边长需不小于端点直线距离
func (g *SearchGraph[NT, ET]) ShortestPath(start, end int, skip func(ET) bool) ([]PathItem[ET], float64) {
	target := g.nodes[end].p
	return AStar(start, end, g.Expander(skip), func(n int) float64 {
		return planar.Distance(g.nodes[n].p, target)
	})
}
