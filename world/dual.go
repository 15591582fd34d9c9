package world

import "github.com/samber/lo"

// 对偶图：每条边一个节点，共享端点的两条边之间是一次转弯
func (w *World) buildDual() {
	for _, e := range w.edges {
		w.dual[e.ID] = DualNode{ID: e.ID, Point: e.Centroid()}
		for _, j := range []int32{e.From, e.To} {
			for _, fid := range w.Node(j).Edges {
				if fid == e.ID {
					continue
				}
				f := w.Edge(fid)
				w.turns[e.ID] = append(w.turns[e.ID], Turn{
					From:       e.ID,
					To:         f.ID,
					Junction:   j,
					Deflection: deflection(e, f, j),
				})
			}
		}
	}
}

func (w *World) DualNode(edgeID int32) (DualNode, bool) {
	d, ok := w.dual[edgeID]
	return d, ok
}

// Turns 从对偶节点出发的转弯
func (w *World) Turns(edgeID int32) []Turn {
	return w.turns[edgeID]
}

// PrimalJunction 两条边的公共端点，不相邻时返回NO_NODE
func (w *World) PrimalJunction(e1, e2 int32) int32 {
	a, b := w.Edge(e1), w.Edge(e2)
	if a == nil || b == nil || e1 == e2 {
		return NO_NODE
	}
	switch {
	case b.HasEndpoint(a.From):
		return a.From
	case b.HasEndpoint(a.To):
		return a.To
	}
	return NO_NODE
}

// DualPathToDirected 把对偶路径（边序列）还原为从origin出发的有向边序列
// 相邻两条边不共享端点时返回false
func (w *World) DualPathToDirected(origin int32, dualPath []int32) ([]DirectedEdge, bool) {
	out := make([]DirectedEdge, 0, len(dualPath))
	cur := origin
	for _, id := range dualPath {
		e := w.Edge(id)
		if e == nil || !e.HasEndpoint(cur) {
			return nil, false
		}
		next := e.Other(cur)
		out = append(out, DirectedEdge{Edge: id, From: cur, To: next})
		cur = next
	}
	return out, true
}

// DirectedToDual 有向边序列对应的对偶节点序列
func DirectedToDual(des []DirectedEdge) []int32 {
	return lo.Map(des, func(d DirectedEdge, _ int) int32 { return d.Edge })
}
