package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/agent"
	"git.fiblab.net/sim/wayfinding/cognition"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// IsLearner 按比例share交错指定学习者，share为0.5时ID为偶数的代理学习
func IsLearner(id int32, share float64) bool {
	return math.Ceil(float64(id+1)*share) > math.Ceil(float64(id)*share)
}

// AgentRand 代理自己的随机数源
func AgentRand(seed int64, id int32) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(id)))
}

// Populate 并行构建全部代理：认知地图、启发式与学习者的初始记忆
// 结果按ID排列，与完成顺序无关
func Populate(ctx context.Context, c *cognition.Community, occ *agent.Occupancy, sink agent.FlowSink) ([]*agent.Agent, error) {
	cfg := c.World().Config()
	n := cfg.Agents()
	if n <= 0 {
		return nil, ErrNoAgents
	}
	log.Infof("creating %s agents, building their cognitive maps", humanize.Comma(int64(n)))
	agents := make([]*agent.Agent, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Simulation.Workers))
	for i := range n {
		id := int32(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := AgentRand(cfg.Simulation.Seed, id)
			m, err := cognition.NewCognitiveMap(c, rng)
			if err != nil {
				return fmt.Errorf("agent %d: %w", id, err)
			}
			m.Form()
			a := agent.New(id, m, IsLearner(id, cfg.Population.LearnerShare), occ, sink, rng)
			if err := a.BuildBasicMemory(); err != nil {
				return err
			}
			agents[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	learners := lo.CountBy(agents, func(a *agent.Agent) bool { return a.Learner })
	log.Infof("%s agents created, %s learners", humanize.Comma(int64(n)), humanize.Comma(int64(learners)))
	return agents, nil
}
