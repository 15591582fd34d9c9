package cognition

import (
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

// CognitiveMap 单个代理对城市的认知：家与工作地、活动骨架、已知节点/边/区域/屏障/地标及其连通子网
// 只有所属代理会修改，其他代理的查询（例如某区域是否已知）走读锁；已知集合整体替换，不原地修改
type CognitiveMap struct {
	mu        *xsync.RBMutex
	w         *world.World
	cfg       *config.Config
	community *Community
	builder   *NetworkBuilder

	Home int32
	Work int32
	// 空间能力，[0,1]
	SpatialAbility float64

	boneNodes world.Set
	boneEdges world.Set

	knownNodes          world.Set
	knownEdges          world.Set
	knownRegions        world.Set
	knownBarriers       world.Set
	knownLocalLandmarks world.Set
	network             *KnownNetwork

	grid    *VividnessGrid
	collage *Collage
	traces  []MemoryTrace
	formed  bool
}

// NewCognitiveMap 随机选择家，并在家的一定距离范围内选择工作地
func NewCognitiveMap(c *Community, rng *rand.Rand) (*CognitiveMap, error) {
	w := c.World()
	cfg := w.Config()
	nodes := w.Nodes()
	home := nodes[rng.IntN(len(nodes))].ID
	candidates := world.NewSet(lo.Map(nodes, func(n *world.Node, _ int) int32 { return n.ID })...)
	lower, upper := cfg.Simulation.MinWorkDistance, cfg.Simulation.MaxWorkDistance
	works := w.NodesBetweenDistance(home, lower, upper, candidates)
	for i := 0; len(works) == 0 && i < MAX_WORK_RELAXATIONS; i++ {
		// 小城市：逐步放宽距离范围
		lower, upper = lower/2, upper*2
		works = w.NodesBetweenDistance(home, lower, upper, candidates)
	}
	if len(works) == 0 {
		return nil, ErrNoWorkplace
	}
	m := &CognitiveMap{
		mu:                  xsync.NewRBMutex(),
		w:                   w,
		cfg:                 cfg,
		community:           c,
		builder:             NewNetworkBuilder(c),
		Home:                home,
		Work:                works[rng.IntN(len(works))],
		SpatialAbility:      lo.Clamp(cfg.Learning.MeanMemoryRoutes+(rng.Float64()-0.5)*SPATIAL_ABILITY_SPREAD, 0, 1),
		knownNodes:          world.NewSet(),
		knownEdges:          world.NewSet(),
		knownRegions:        world.NewSet(),
		knownBarriers:       world.NewSet(),
		knownLocalLandmarks: world.NewSet(),
	}
	return m, nil
}

// Form 由活动骨架与社区认知地图构建初始认知
func (m *CognitiveMap) Form() {
	m.buildActivityBone()
	nodes, edges, regions := m.fuse(world.NewSet(), world.NewSet())
	regions.Add(m.w.Node(m.Home).Region, m.w.Node(m.Work).Region)
	network := m.builder.Build(edges)
	regions = m.deriveKnownRegions(nodes, regions, network)
	barriers := m.findKnownBarriers(edges)

	m.mu.Lock()
	m.knownNodes, m.knownEdges, m.knownRegions, m.knownBarriers = nodes, edges, regions, barriers
	m.network = network
	m.formed = true
	m.mu.Unlock()
	log.Debugf("cognitive map formed: home %d, work %d, %d known edges", m.Home, m.Work, len(edges))
}

// 家与工作地所在区域、两者周边一定路网距离内的节点、两者之间的最短路、城市中心区域
func (m *CognitiveMap) buildActivityBone() {
	nodes := world.NewSet(m.Home, m.Work)
	queue := []int32{m.Home, m.Work}
	dist := map[int32]float64{m.Home: 0, m.Work: 0}
	for _, id := range queue {
		nodes.Add(m.w.Region(m.w.Node(id).Region).Nodes...)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range m.w.Outgoing(cur) {
			nd := dist[cur] + m.w.Edge(d.Edge).Length
			if nodes.Has(d.To) || nd > m.cfg.Simulation.HomeWorkRadius {
				continue
			}
			nodes.Add(d.To)
			dist[d.To] = nd
			queue = append(queue, d.To)
		}
	}
	if des, _ := m.w.ShortestPath(m.Home, m.Work); des != nil {
		for _, d := range des {
			nodes.Add(d.From, d.To)
		}
	}
	for _, id := range m.cfg.RouteChoice.CityCentreRegions {
		if r := m.w.Region(id); r != nil {
			nodes.Add(r.Nodes...)
		}
	}
	edges := world.NewSet()
	for id := range nodes {
		edges.Add(m.w.Node(id).Edges...)
	}
	m.boneNodes, m.boneEdges = nodes, edges
}

// 与活动骨架、社区认知地图、城市中心区域合并
func (m *CognitiveMap) fuse(nodes, edges world.Set) (world.Set, world.Set, world.Set) {
	regions := m.community.KnownRegions.Clone()
	for _, id := range m.community.KnownRegions.Sorted() {
		nodes.Add(m.w.Region(id).Nodes...)
	}
	nodes.Union(m.boneNodes).Union(m.community.KnownNodes)
	edges.Union(m.boneEdges).Union(m.community.KnownEdges)
	return nodes, edges, regions
}

// Readjust 已知节点重置为已知空间中的节点，已知边为这些节点的全部关联边，再与骨架和社区合并
func (m *CognitiveMap) Readjust(c *Collage) {
	nodes := m.w.NodesWithin(c)
	edges := world.NewSet()
	for id := range nodes {
		edges.Add(m.w.Node(id).Edges...)
	}
	nodes, edges, _ = m.fuse(nodes, edges)
	network := m.builder.Build(edges)

	t := m.mu.RLock()
	regions := m.knownRegions.Clone()
	m.mu.RUnlock(t)
	regions = m.deriveKnownRegions(nodes, regions, network)
	barriers := m.findKnownBarriers(edges)

	m.mu.Lock()
	m.collage = c
	m.knownNodes, m.knownEdges, m.knownRegions, m.knownBarriers = nodes, edges, regions, barriers
	m.network = network
	m.mu.Unlock()
	log.Debugf("cognitive map readjusted: %d cells, %d known nodes, %d regions", c.Len(), len(nodes), len(regions))
}

// 已知节点所在的区域中，已知网络在区域内连成一片的区域也视为已知
func (m *CognitiveMap) deriveKnownRegions(nodes, regions world.Set, network *KnownNetwork) world.Set {
	candidates := world.NewSet()
	for id := range nodes {
		if r := m.w.Node(id).Region; !regions.Has(r) {
			candidates.Add(r)
		}
	}
	for _, rid := range candidates.Sorted() {
		inRegion := world.NewSet()
		for id := range network.Edges {
			if m.w.Edge(id).Region == rid {
				inRegion.Add(id)
			}
		}
		if len(m.w.Islands(inRegion)) == 1 {
			regions.Add(rid)
		}
	}
	return regions
}

func (m *CognitiveMap) findKnownBarriers(edges world.Set) world.Set {
	barriers := m.community.KnownBarriers.Clone()
	for id := range edges {
		barriers.Add(m.w.Edge(id).Barriers...)
	}
	return barriers
}

// FindKnownLocalLandmarks 已知节点附近局部得分高于threshold的建筑
func (m *CognitiveMap) FindKnownLocalLandmarks(threshold float64) world.Set {
	t := m.mu.RLock()
	nodes := m.knownNodes
	m.mu.RUnlock(t)
	out := world.NewSet()
	for id := range nodes {
		for _, b := range m.w.Node(id).LocalLandmarks {
			if m.w.Building(b).LocalScore > threshold {
				out.Add(b)
			}
		}
	}
	return out
}

// SetKnownLocalLandmarks 记下最近一次出行识别出的局部地标
func (m *CognitiveMap) SetKnownLocalLandmarks(s world.Set) {
	m.mu.Lock()
	m.knownLocalLandmarks = s
	m.mu.Unlock()
}

// EffectiveVividness 起终点之间的记忆强度，平滑后与空间能力加权
// 尚无记忆栅格时只由空间能力决定；不改变平滑状态
func (m *CognitiveMap) EffectiveVividness(o, d int32) float64 {
	l := m.cfg.Learning
	g := m.Grid()
	if g == nil {
		return lo.Clamp((1-l.VividnessWeight)*m.SpatialAbility, 0, 1)
	}
	raw := g.VividnessBetween(m.w.Node(o).Point, m.w.Node(d).Point, l.RouteVividnessRadius)
	return g.EffectiveVividness(raw, m.SpatialAbility, l.SmoothingFactor, l.VividnessWeight)
}

// ObserveVividness 与EffectiveVividness相同，并把本次强度计入平滑状态，只由所属代理在出行前调用
func (m *CognitiveMap) ObserveVividness(o, d int32) float64 {
	l := m.cfg.Learning
	g := m.Grid()
	if g == nil {
		return lo.Clamp((1-l.VividnessWeight)*m.SpatialAbility, 0, 1)
	}
	raw := g.VividnessBetween(m.w.Node(o).Point, m.w.Node(d).Point, l.RouteVividnessRadius)
	v := g.EffectiveVividness(raw, m.SpatialAbility, l.SmoothingFactor, l.VividnessWeight)
	g.Observe(raw, l.SmoothingFactor)
	return v
}

func (m *CognitiveMap) World() *world.World {
	return m.w
}

func (m *CognitiveMap) Community() *Community {
	return m.community
}

func (m *CognitiveMap) Builder() *NetworkBuilder {
	return m.builder
}

func (m *CognitiveMap) Formed() bool {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.formed
}

// 以下返回的集合只读

func (m *CognitiveMap) KnownNodes() world.Set {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownNodes
}

func (m *CognitiveMap) KnownEdges() world.Set {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownEdges
}

func (m *CognitiveMap) KnownRegions() world.Set {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownRegions
}

func (m *CognitiveMap) KnownBarriers() world.Set {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownBarriers
}

func (m *CognitiveMap) KnownLocalLandmarks() world.Set {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownLocalLandmarks
}

func (m *CognitiveMap) KnownNetwork() *KnownNetwork {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.network
}

func (m *CognitiveMap) IsRegionKnown(id int32) bool {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.knownRegions.Has(id)
}

func (m *CognitiveMap) Collage() *Collage {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.collage
}

// Grid 尚未学习时为nil
func (m *CognitiveMap) Grid() *VividnessGrid {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.grid
}

// ensureGrid 首次学习时以可见空间的范围创建记忆栅格
func (m *CognitiveMap) ensureGrid(seed MemoryTrace) *VividnessGrid {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grid == nil {
		m.grid = NewVividnessGrid(seed.Space.Bound(), m.cfg.Learning.CellSize)
	}
	return m.grid
}

func (m *CognitiveMap) addTrace(t MemoryTrace) {
	m.mu.Lock()
	m.traces = append(m.traces, t)
	m.mu.Unlock()
}

// Traces 按时间顺序的记忆痕迹
func (m *CognitiveMap) Traces() []MemoryTrace {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)
	return m.traces
}
