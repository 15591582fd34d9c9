package router

import (
	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"git.fiblab.net/sim/wayfinding/world"
)

// Trip 一次出行的规划上下文，途经点策略都在其上计算
type Trip struct {
	w      *world.World
	m      *cognition.CognitiveMap
	rc     config.RouteChoice
	traits heuristics.Traits

	Origin      int32
	Destination int32

	// 本次出行使用的已知网络，起终点不在其中时由规划器补全
	network *cognition.KnownNetwork
	// 按本次出行的局部地标阈值识别出的已知地标
	landmarks  world.Set
	knownNodes world.Set
	// 选中的地标途经点
	marks []int32
}

func NewTrip(m *cognition.CognitiveMap, traits heuristics.Traits, origin, destination int32) *Trip {
	w := m.World()
	return &Trip{
		w:           w,
		m:           m,
		rc:          w.Config().RouteChoice,
		traits:      traits,
		Origin:      origin,
		Destination: destination,
		network:     m.KnownNetwork(),
		landmarks:   m.FindKnownLocalLandmarks(traits.LocalThreshold),
		knownNodes:  m.KnownNodes(),
	}
}

// Marks 最近一次计算出的地标途经点
func (t *Trip) Marks() []int32 {
	return t.marks
}

func (t *Trip) Traits() heuristics.Traits {
	return t.traits
}

// 是否启用区域导航：直线距离不小于激活阈值，起终点在不同区域且起点区域已知
func (t *Trip) regionBased() bool {
	if !t.traits.Regions {
		return false
	}
	o, d := t.w.Node(t.Origin), t.w.Node(t.Destination)
	return t.w.Distance(t.Origin, t.Destination) >= t.rc.RegionNavActivationThreshold &&
		o.Region != d.Region && o.Region != world.NO_REGION && t.m.IsRegionKnown(o.Region)
}

func (t *Trip) adjacent(a, b int32) bool {
	_, ok := t.w.EdgeBetween(a, b)
	return ok
}
