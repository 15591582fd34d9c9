package heuristics

import (
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/cognition"
	"git.fiblab.net/sim/wayfinding/config"
)

// Assign 由有效记忆强度v抽取一次出行的策略
func Assign(v float64, rng *rand.Rand) Traits {
	t := Traits{LocalThreshold: LocalLandmarkThreshold(v)}
	t.GlobalWeightDistance, t.GlobalWeightAngular = GlobalLandmarkWeights(v)
	t.EasinessThreshold = EasinessThreshold(v)
	t.EasinessThresholdRegion = t.EasinessThreshold

	pd := ProbabilityDistance(v)
	pa := 1 - pd
	r := rng.Float64()
	if pd > FORCE_MINIMISATION || pa > FORCE_MINIMISATION {
		t.OnlyMinimising = ANGULAR_CHANGE
		if pd > pa {
			t.OnlyMinimising = ROAD_DISTANCE
		}
		return t
	}
	t.Local = ANGULAR_CHANGE
	if r < pd {
		t.Local = ROAD_DISTANCE
	}
	t.Subgoal = SUBGOAL_LOCAL_LANDMARKS
	if rng.Float64() < ProbabilityBarriers(v) {
		t.Subgoal = SUBGOAL_BARRIERS
	}
	t.DistantLandmarks = rng.Float64() < ProbabilityDistantLandmarks(v)
	t.Regions = rng.Float64() < ProbabilityRegions(v)
	return t
}

// BarrierEffects 由人群参数得到屏障感知的均值与标准差
// 自然屏障[0,1]映射到均值[1,0]，割裂性屏障[0,1]映射到[1,2]
func BarrierEffects(p config.Population) (d BarrierDisposition, naturalMean, severingMean float64) {
	naturalMean = 1 - p.NaturalBarriers
	severingMean = 1 + p.SeveringBarriers
	if naturalMean < NATURAL_PREFERENCE_BELOW {
		d |= PREFER_NATURAL
	}
	if severingMean > SEVERING_AVERSION_ABOVE {
		d |= AVOID_SEVERING
	}
	return d, naturalMean, severingMean
}

func withBarriers(t *Traits, p config.Population) {
	t.Barriers, t.NaturalMean, t.SeveringMean = BarrierEffects(p)
	t.NaturalSD, t.SeveringSD = p.NaturalBarriersSD, p.SeveringBarriersSD
}

// FromPopulation 不依赖记忆，按人群经验概率抽取策略
// 每组概率先从各自的正态分布采样，再按权重选择
func FromPopulation(cfg *config.Config, rng *rand.Rand) Traits {
	p := cfg.Population
	rc := cfg.RouteChoice
	t := Traits{
		LocalThreshold:          rc.LocalLandmarkThresholdCommunity,
		GlobalWeightDistance:    rc.GlobalLandmarkWeightDistance,
		GlobalWeightAngular:     rc.GlobalLandmarkWeightAngular,
		EasinessThreshold:       rc.WayfindingEasinessThreshold,
		EasinessThresholdRegion: rc.WayfindingEasinessThresholdRegion,
	}
	using := pick(rng,
		Normal(rng, p.ProbUsingElements, p.ProbUsingElementsSD),
		Normal(rng, p.ProbNotUsingElements, p.ProbNotUsingElementsSD),
	) == 0
	if !using {
		t.OnlyMinimising = ANGULAR_CHANGE
		if pick(rng,
			Normal(rng, p.ProbRoadDistance, p.ProbRoadDistanceSD),
			Normal(rng, p.ProbAngularChange, p.ProbAngularChangeSD),
		) == 0 {
			t.OnlyMinimising = ROAD_DISTANCE
		}
		return t
	}
	withBarriers(&t, p)
	t.Local = ANGULAR_CHANGE
	if pick(rng,
		Normal(rng, p.ProbLocalRoadDistance, p.ProbLocalRoadDistanceSD),
		Normal(rng, p.ProbLocalAngularChange, p.ProbLocalAngularChangeSD),
	) == 0 {
		t.Local = ROAD_DISTANCE
	}
	pr := Normal(rng, p.ProbRegionBased, p.ProbRegionBasedSD)
	t.Regions = pick(rng, pr, 1-pr) == 0
	pl := Normal(rng, p.ProbLocalLandmarks, p.ProbLocalLandmarksSD)
	pb := Normal(rng, p.ProbBarrierSubGoals, p.ProbBarrierSubGoalsSD)
	switch pick(rng, pl, pb, 1-(pl+pb)) {
	case 0:
		t.Subgoal = SUBGOAL_LOCAL_LANDMARKS
	case 1:
		t.Subgoal = SUBGOAL_BARRIERS
	}
	pd := Normal(rng, p.ProbDistantLandmarks, p.ProbDistantLandmarksSD)
	t.DistantLandmarks = pick(rng, pd, 1-pd) == 0
	return t
}

// Heuristics 代理在每次出行前决定寻路策略
type Heuristics struct {
	m       *cognition.CognitiveMap
	cfg     *config.Config
	learner bool
	rng     *rand.Rand

	// 不属于地图所属代理的出行决策，只读地图
	detached bool

	vividness float64
	traits    Traits
}

func New(m *cognition.CognitiveMap, learner bool, rng *rand.Rand) *Heuristics {
	return &Heuristics{
		m:       m,
		cfg:     m.World().Config(),
		learner: learner,
		rng:     rng,
	}
}

// NewDetached 按需规划用的启发式：与New相同，但不改变地图的任何状态
func NewDetached(m *cognition.CognitiveMap, learner bool, rng *rand.Rand) *Heuristics {
	h := New(m, learner, rng)
	h.detached = true
	return h
}

// Define 为origin到destination的出行确定策略
// 非学习者或尚无记忆时按人群概率，否则由两点间的有效记忆强度决定
func (h *Heuristics) Define(origin, destination int32) Traits {
	if !h.learner || h.m.Grid() == nil {
		h.vividness = 0
		h.traits = FromPopulation(h.cfg, h.rng)
	} else {
		if h.detached {
			h.vividness = h.m.EffectiveVividness(origin, destination)
		} else {
			h.vividness = h.m.ObserveVividness(origin, destination)
		}
		h.traits = Assign(h.vividness, h.rng)
		if !h.traits.Minimising() {
			withBarriers(&h.traits, h.cfg.Population)
		}
	}
	log.Debugf("traits %d->%d (vividness %.3f): %v", origin, destination, h.vividness, h.traits)
	return h.traits
}

// Traits 最近一次Define的结果
func (h *Heuristics) Traits() Traits {
	return h.traits
}

func (h *Heuristics) Vividness() float64 {
	return h.vividness
}

func (h *Heuristics) Learner() bool {
	return h.learner
}

func (h *Heuristics) Detached() bool {
	return h.detached
}
