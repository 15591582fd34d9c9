package router

import (
	"slices"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/world"
)

// LocalLandmarkness 节点附近代理已知的局部地标中的最高局部得分
func LocalLandmarkness(w *world.World, node int32, known world.Set) float64 {
	best := 0.0
	for _, b := range w.Node(node).LocalLandmarks {
		if !known.Has(b) {
			continue
		}
		best = max(best, w.Building(b).LocalScore)
	}
	return best
}

// GlobalLandmarkness 从node可见、且属于目的地锚点的远距离地标的最高全局得分
// 得分按node到目的地与地标到目的地的距离比折减，结果按(node, destination)缓存在社区中
func GlobalLandmarkness(c *cognition.Community, node, destination int32) float64 {
	if v, ok := c.CachedHeuristic(node, destination); ok {
		return v
	}
	w := c.World()
	n, d := w.Node(node), w.Node(destination)
	best := 0.0
	if len(n.VisibleLandmarks) > 0 {
		target := w.Distance(node, destination)
		for _, b := range n.VisibleLandmarks {
			score := w.Building(b).GlobalScore
			if len(d.Anchors) == 0 {
				best = max(best, score*NO_ANCHOR_DISCOUNT)
				continue
			}
			i := slices.Index(d.Anchors, b)
			if i < 0 {
				continue
			}
			if dl := d.AnchorDistances[i]; dl > 0 {
				score *= min(target/dl, 1)
			}
			best = max(best, score)
		}
	}
	c.StoreHeuristic(node, destination, best)
	return best
}
