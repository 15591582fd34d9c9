package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/wayfinding/engine"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

var (
	benchmarkCount  = flag.Int("benchmark.count", 1000, "the random route planning count for benchmark")
	benchmarkAgents = flag.Int("benchmark.agents", 20, "the agent count whose cognitive maps are used for benchmark")
	benchmarkSeed   = flag.Uint64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU    = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

// 用随机代理的认知地图规划随机起终点的路线
func runBenchmark(w *world.World) {
	cfg := w.Config()
	cfg.Simulation.NumAgents = *benchmarkAgents
	sim, err := engine.New(context.Background(), w, nil, 0)
	if err != nil {
		log.Fatalf("benchmark setup failed: %v", err)
	}
	server := NewControlServer()
	server.Attach(sim)
	logrus.SetLevel(logrus.WarnLevel)

	// 设置随机种子
	e := rand.New(rand.NewPCG(*benchmarkSeed, 0))
	nodes := w.Nodes()
	reqs := make([]*connect.Request[PlanRouteRequest], *benchmarkCount)
	for i := range reqs {
		reqs[i] = connect.NewRequest(&PlanRouteRequest{
			Agent:       int32(e.IntN(len(sim.Agents))),
			Origin:      nodes[e.IntN(len(nodes))].ID,
			Destination: nodes[e.IntN(len(nodes))].ID,
		})
	}

	// 开始benchmark
	start := time.Now()
	var success atomic.Int32
	plan := func(req *connect.Request[PlanRouteRequest]) {
		res, err := server.PlanRoute(context.Background(), req)
		if err != nil {
			log.Error("benchmark failed, err:", err)
			return
		}
		if len(res.Msg.Edges) > 0 {
			success.Add(1)
		}
	}
	if *benchmarkCPU == 1 {
		for _, req := range reqs {
			plan(req)
		}
	} else {
		// 设置cpu数量
		runtime.GOMAXPROCS(*benchmarkCPU)
		var wg sync.WaitGroup
		sem := make(chan struct{}, *benchmarkCPU)
		for _, req := range reqs {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer func() { <-sem; wg.Done() }()
				plan(req)
			}()
		}
		wg.Wait()
	}
	timeCost := time.Since(start)
	log.Warn(
		"benchmark finished", "\n",
		"count: ", humanize.Comma(int64(*benchmarkCount)), "\n",
		"time: ", timeCost, "\n",
		"avg: ", timeCost/time.Duration(max(1, *benchmarkCount)), "\n",
		"success: ", success.Load(), "\n",
	)
}
