package cognition

import (
	"fmt"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb"
)

// MemoryTrace 一次学习留下的记忆痕迹，创建后不变
type MemoryTrace struct {
	Space  orb.MultiPolygon
	Route  *world.Route
	Weight float64
	Step   int64
}

// RoutePlanner 为代理规划一次出行
type RoutePlanner interface {
	PlanRoute(origin, destination int32) (*world.Route, error)
}

// IncrementalLearning 代理的路线记忆：初始记忆、出行后的更新和遗忘
type IncrementalLearning struct {
	m            *CognitiveMap
	memorability *Memorability
	rng          *rand.Rand
	// 目前认为局部地标的阈值，由代理的启发式更新
	localThreshold float64
	routes         []*world.Route
}

func NewIncrementalLearning(m *CognitiveMap, rng *rand.Rand) *IncrementalLearning {
	return &IncrementalLearning{
		m:            m,
		memorability: NewMemorability(m.Community()),
		rng:          rng,
	}
}

func (l *IncrementalLearning) SetLocalThreshold(t float64) {
	l.localThreshold = t
}

func (l *IncrementalLearning) Memorability() *Memorability {
	return l.memorability
}

// Routes 学习过的路线，按时间顺序
func (l *IncrementalLearning) Routes() []*world.Route {
	return l.routes
}

// BuildBasicMemory 反复规划家到工作地的路线，直到记住足够多条
func (l *IncrementalLearning) BuildBasicMemory(p RoutePlanner, step int64) error {
	if !l.m.Formed() {
		return ErrNotFormed
	}
	cfg := l.m.cfg.Learning
	for len(l.routes) < cfg.MinWalkedRoutes {
		r, err := p.PlanRoute(l.m.Home, l.m.Work)
		if err != nil {
			return fmt.Errorf("basic memory %d->%d: %w", l.m.Home, l.m.Work, err)
		}
		if r == nil {
			return ErrNoPlannedTrip
		}
		if cfg.UsingMeaningfulness {
			l.memorability.Evaluate(r, l.routes, l.localThreshold, l.rng)
		} else {
			l.memorability.Properties(r, l.localThreshold)
		}
		l.routes = append(l.routes, r)
	}
	if cfg.UsingMeaningfulness {
		l.memorability.Reevaluate(l.routes, l.localThreshold, l.rng)
	}
	for _, r := range l.routes {
		l.expandCollage(r, step)
	}
	return nil
}

// UpdateMemory 出行结束后把路线写入记忆
func (l *IncrementalLearning) UpdateMemory(r *world.Route, step int64) {
	if l.m.cfg.Learning.UsingMeaningfulness {
		l.memorability.Evaluate(r, l.routes, l.localThreshold, l.rng)
	}
	l.expandCollage(r, step)
	l.routes = append(l.routes, r)
}

func (l *IncrementalLearning) expandCollage(r *world.Route, step int64) {
	props := l.memorability.Properties(r, l.localThreshold)
	weight := 1.0
	if l.m.cfg.Learning.UsingMeaningfulness {
		weight = props.Meaningfulness
	}
	trace := MemoryTrace{Space: props.VisibilitySpace, Route: r, Weight: weight, Step: step}
	g := l.m.ensureGrid(trace)
	g.AddVisibilitySpace(trace.Space, weight)
	l.m.addTrace(trace)
	l.m.Readjust(g.UpdateCollage(g.PercentileThreshold(l.m.cfg.Learning.MemoryPercentile)))
}

// ApplyDecay 经过elapsed秒的遗忘，跌破阈值时重新调整认知地图，返回是否调整
func (l *IncrementalLearning) ApplyDecay(ability, elapsedSeconds float64) bool {
	g := l.m.Grid()
	if g == nil {
		return false
	}
	cfg := l.m.cfg.Learning
	threshold := g.PercentileThreshold(cfg.MemoryPercentile)
	if !g.ApplyDecay(ability, elapsedSeconds, cfg.HalfLifeDays, threshold) {
		return false
	}
	l.m.Readjust(g.UpdateCollage(threshold))
	return true
}
