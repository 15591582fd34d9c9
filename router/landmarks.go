package router

import (
	"slices"
)

// 候选点得分：局部地标程度与朝target的距离收益加权
func (t *Trip) markScore(candidate, current, target int32, region bool) float64 {
	score := LocalLandmarkness(t.w, candidate, t.landmarks)
	gain := 0.0
	if d := t.w.Distance(current, target); d > 0 {
		gain = (d - t.w.Distance(candidate, target)) / d
	}
	if region {
		return score*SCORE_WEIGHT_REGION + gain*DISTANCE_GAIN_WEIGHT_REGION
	}
	return score*SCORE_WEIGHT + gain*DISTANCE_GAIN_WEIGHT
}

// 从node到终点范围内的已知显著节点；找不到时逐步降低分位数，低于0.5时放弃
func (t *Trip) salientJunctions(node int32) []int32 {
	for p := t.rc.SalientNodesPercentile; p >= MIN_SALIENT_PERCENTILE; p -= SALIENT_PERCENTILE_STEP {
		nodes := slices.DeleteFunc(t.w.SalientNodesWithin(node, t.Destination, p), func(id int32) bool {
			return !t.knownNodes.Has(id)
		})
		if len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

func (t *Trip) regionSalientJunctions(region int32) []int32 {
	r := t.w.Region(region)
	if r == nil {
		return nil
	}
	for p := t.rc.SalientNodesPercentile; p >= MIN_SALIENT_PERCENTILE; p -= SALIENT_PERCENTILE_STEP {
		if nodes := t.w.SalientNodesOf(r.Nodes, p); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

// 得分最高的候选点，得分相同时取先出现的
func (t *Trip) bestMark(candidates []int32, valid func(int32) bool, current, target int32, region bool) (int32, bool) {
	best, bestScore, found := int32(0), 0.0, false
	for _, c := range candidates {
		if !valid(c) {
			continue
		}
		if s := t.markScore(c, current, target, region); !found || s > bestScore {
			best, bestScore, found = c, s, true
		}
	}
	return best, found
}

// OnRouteMarks 朝终点逐个挑选显著且有地标的路口，直到寻路容易度达到阈值
// 返回[起点, 途经点..., 终点]，途经点同时记录在Marks中
func (t *Trip) OnRouteMarks() []int32 {
	t.marks = make([]int32, 0)
	current := t.Origin
	salient := t.salientJunctions(current)
	easiness := t.WayfindingEasiness(current)
	search := t.w.Distance(current, t.Destination) * easiness
	for len(salient) > 0 && easiness < t.traits.EasinessThreshold {
		best, ok := t.bestMark(salient, func(c int32) bool {
			return !slices.Contains(t.marks, c) && c != t.Origin && c != t.Destination &&
				!t.adjacent(c, current) && !t.adjacent(c, t.Origin) &&
				t.w.Distance(current, c) <= search
		}, current, t.Destination, false)
		if !ok || best == current {
			break
		}
		t.marks = append(t.marks, best)
		current = best
		salient = t.salientJunctions(current)
		easiness = t.WayfindingEasiness(current)
		search = t.w.Distance(current, t.Destination) * easiness
	}
	log.Debugf("on-route marks %d->%d: %v", t.Origin, t.Destination, t.marks)
	return t.withEnds(t.marks)
}

// RegionOnRouteMarks 在区域序列的每个区域内，从入口到出口之间挑选地标途经点
// gateways为RegionSequence的结果
func (t *Trip) RegionOnRouteMarks(gateways []int32) []int32 {
	t.marks = make([]int32, 0)
	sequence := make([]int32, 0, len(gateways))
	current := t.Origin
	for _, exit := range gateways {
		if exit == t.Origin || current == t.Destination {
			continue
		}
		sequence = append(sequence, current)
		if t.w.Node(current).Region != t.w.Node(exit).Region {
			// 跨越出入口
			current = exit
			continue
		}
		in := t.marksInRegion(current, exit, sequence)
		sequence = append(sequence, in...)
		t.marks = append(t.marks, in...)
		current = exit
	}
	log.Debugf("region on-route marks %d->%d: %v", t.Origin, t.Destination, t.marks)
	return append(sequence, t.Destination)
}

func (t *Trip) marksInRegion(current, exit int32, sequence []int32) []int32 {
	in := make([]int32, 0)
	salient := t.regionSalientJunctions(t.w.Node(current).Region)
	if len(salient) == 0 {
		return in
	}
	easiness := t.WayfindingEasinessRegion(current, exit)
	search := t.w.Distance(current, exit) * easiness
	for easiness < t.traits.EasinessThresholdRegion {
		remaining := t.w.Distance(current, exit)
		best, ok := t.bestMark(salient, func(c int32) bool {
			return !slices.Contains(in, c) && c != current && !t.adjacent(c, current) &&
				t.w.Distance(current, c) <= search && t.w.Distance(c, exit) <= remaining &&
				!slices.Contains(sequence, c)
		}, current, exit, true)
		if !ok || best == exit || best == t.Destination {
			break
		}
		in = append(in, best)
		current = best
		easiness = t.WayfindingEasinessRegion(current, exit)
		search = t.w.Distance(current, exit) * easiness
	}
	return in
}

func (t *Trip) withEnds(mid []int32) []int32 {
	out := make([]int32, 0, len(mid)+2)
	out = append(out, t.Origin)
	out = append(out, mid...)
	return append(out, t.Destination)
}
