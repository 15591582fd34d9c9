package engine

import (
	"cmp"
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"git.fiblab.net/sim/wayfinding/agent"
	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/heuristics"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ReleaseManager 把一天的期望步行里程按日内强度分配到各释放时段，并据此让在家的代理出发
type ReleaseManager struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed uint64
	// 每小时的里程占比，和为1
	profile []float64

	day           int
	daily         float64
	expected      float64
	walkedAtStart float64
}

func NewReleaseManager(cfg *config.Config, rng *rand.Rand) *ReleaseManager {
	total := lo.Sum(cfg.Time.HourlyProfile)
	profile := lo.Map(cfg.Time.HourlyProfile, func(v float64, _ int) float64 {
		if total <= 0 {
			return 1.0 / 24
		}
		return v / total
	})
	return &ReleaseManager{
		cfg:     cfg,
		rng:     rng,
		seed:    rng.Uint64(),
		profile: profile,
	}
}

// StartDay 当天的期望里程 = metersPerDay·N(1, 0.1)
func (r *ReleaseManager) StartDay(day int, agents []*agent.Agent) {
	r.day = day
	r.daily = math.Max(0, r.cfg.MetersPerDay()*heuristics.Normal(r.rng, 1, DAILY_METERS_SD))
	r.expected = 0
	r.walkedAtStart = walked(agents)
	log.Infof("day %d begins: %s expected to be walked", day+1, humanize.SIWithDigits(r.daily, 1, "m"))
}

// Daily 当天的期望里程
func (r *ReleaseManager) Daily() float64 {
	return r.daily
}

func walked(agents []*agent.Agent) float64 {
	return lo.SumBy(agents, func(a *agent.Agent) float64 { return a.MetersWalked() })
}

// SlotShare tick所在释放时段应分配的当日里程比例
func (r *ReleaseManager) SlotShare(tick int64) float64 {
	t := r.cfg.Time
	inDay := tick % int64(r.cfg.StepsPerDay())
	hour := int(float64(inDay)*t.StepDuration/3600) % 24
	slotHours := float64(t.ReleaseAgentsEverySteps) * t.StepDuration / 3600
	return r.profile[hour] * slotHours
}

// Release 释放本时段的代理，返回出发的代理数
// 分配量按已走里程与期望的差额修正，一半留给回家
func (r *ReleaseManager) Release(ctx context.Context, tick int64, agents []*agent.Agent) (int, error) {
	walkedToday := walked(agents) - r.walkedAtStart
	allocate := r.daily * r.SlotShare(tick)
	adjusted := (allocate + r.expected - walkedToday) * RETURN_TRIP_SHARE
	r.expected += allocate
	if adjusted <= 0 {
		return 0, nil
	}
	waiting := lo.Filter(agents, func(a *agent.Agent, _ int) bool {
		return a.Status() == agent.STATUS_WAITING
	})
	n := max(1, int(adjusted/r.cfg.RouteChoice.AvgTripDistance))
	selected := r.selectAgents(waiting, n)
	distances, err := r.allocate(ctx, tick, selected)
	if err != nil {
		return 0, err
	}
	released := 0
	for i, a := range selected {
		if err := a.Release(distances[i]); err != nil {
			log.Debugf("agent %d not released: %v", a.ID, err)
			continue
		}
		released++
	}
	log.Debugf("tick %d: %d of %d agents released for %.0fm", tick, released, len(selected), adjusted)
	return released, nil
}

// 偏向走得少的代理，结果按ID排序
func (r *ReleaseManager) selectAgents(waiting []*agent.Agent, n int) []*agent.Agent {
	if n >= len(waiting) {
		return waiting
	}
	sorted := slices.Clone(waiting)
	slices.SortStableFunc(sorted, func(a, b *agent.Agent) int {
		if c := cmp.Compare(a.MetersWalked(), b.MetersWalked()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	chosen := make(map[int]struct{}, n)
	for i := 0; len(chosen) < n && i < n*SELECTION_ATTEMPTS; i++ {
		chosen[int(math.Pow(r.rng.Float64(), SELECTION_EXPONENT)*float64(len(sorted)))] = struct{}{}
	}
	out := make([]*agent.Agent, 0, len(chosen))
	for i := range chosen {
		out = append(out, sorted[i])
	}
	slices.SortFunc(out, func(a, b *agent.Agent) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// 并行为各代理分配出行距离avg·N(1, 0.3)，截断到[min, max]
// 每个代理用(种子, tick, ID)派生的随机数源，结果与并行顺序无关
func (r *ReleaseManager) allocate(ctx context.Context, tick int64, selected []*agent.Agent) ([]float64, error) {
	rc := r.cfg.RouteChoice
	out := make([]float64, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.cfg.Simulation.Workers))
	for i, a := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(r.seed^uint64(tick), uint64(a.ID)))
			d := rc.AvgTripDistance * heuristics.Normal(rng, 1, TRIP_DISTANCE_SD)
			out[i] = lo.Clamp(d, rc.MinTripDistance, rc.MaxTripDistance)
			return nil
		})
	}
	return out, g.Wait()
}
