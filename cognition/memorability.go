package cognition

import (
	"math"
	"math/rand/v2"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// 每公里10次转弯或路口视为最复杂
	MAX_EVENTS_PER_KM = 10.0
	ENTROPY_BINS      = 8
	// 走过的路线不足时新奇度从该分布抽取
	NOVELTY_MEAN = 0.35
	NOVELTY_SD   = 0.10
	// 标准差为0时的替代值
	FALLBACK_SD = 0.10
)

// RouteProperties 路线的可记忆性指标
type RouteProperties struct {
	Length        float64
	Turns         int
	Intersections int
	// 沿线建筑中局部地标的比例
	LocalLandmarkRatio           float64
	CumulativeGlobalLandmarkness float64
	CumulativeLocalLandmarkness  float64
	Complexity                   float64
	Exposure                     float64
	Novelty                      float64
	Meaningfulness               float64
	VisitedLocations             world.Set
	VisibilitySpace              orb.MultiPolygon
}

// Easiness 1 - 复杂度
func (p *RouteProperties) Easiness() float64 {
	return 1 - p.Complexity
}

// Memorability 路线属性表，以路线对象为键，首次访问时计算
type Memorability struct {
	w     *world.World
	c     *Community
	cfg   *config.Config
	table *xsync.MapOf[*world.Route, *RouteProperties]
}

func NewMemorability(c *Community) *Memorability {
	return &Memorability{
		w:     c.World(),
		c:     c,
		cfg:   c.World().Config(),
		table: xsync.NewMapOf[*world.Route, *RouteProperties](),
	}
}

// Properties 缺失时计算并写入，localThreshold为代理识别局部地标的阈值
func (m *Memorability) Properties(r *world.Route, localThreshold float64) *RouteProperties {
	p, _ := m.table.LoadOrCompute(r, func() *RouteProperties {
		return m.compute(r, localThreshold)
	})
	return p
}

func (m *Memorability) Lookup(r *world.Route) (*RouteProperties, bool) {
	return m.table.Load(r)
}

func (m *Memorability) compute(r *world.Route, localThreshold float64) *RouteProperties {
	p := &RouteProperties{Length: r.Length(m.w)}
	p.Intersections = max(0, len(r.Nodes)-2)
	for i := 0; i+1 < len(r.DualNodes); i++ {
		for _, t := range m.w.Turns(r.DualNodes[i]) {
			if t.To == r.DualNodes[i+1] {
				if t.Deflection > m.cfg.RouteChoice.ThresholdTurn {
					p.Turns++
				}
				break
			}
		}
	}
	for _, id := range r.Nodes {
		n := m.w.Node(id)
		p.CumulativeGlobalLandmarkness += lo.Max(lo.Map(n.VisibleLandmarks, func(b int32, _ int) float64 {
			return m.w.Building(b).GlobalScore
		}))
		local := lo.Filter(lo.Map(n.LocalLandmarks, func(b int32, _ int) float64 {
			return m.w.Building(b).LocalScore
		}), func(v float64, _ int) bool { return v > localThreshold })
		p.CumulativeLocalLandmarkness += lo.Max(local)
	}

	line := r.Line(m.w)
	along := 0
	localAlong := 0
	for id, b := range m.w.Buildings() {
		if planar.DistanceFrom(line, b.Point) > m.cfg.Learning.BufferRadius {
			continue
		}
		along++
		if m.c.LocalLandmarks.Has(id) {
			localAlong++
		}
	}
	if along > 0 {
		p.LocalLandmarkRatio = float64(localAlong) / float64(along)
	}

	p.VisitedLocations = world.NewSet(r.Origin, r.Destination)
	if len(r.VisitedLocations) > 0 {
		p.VisitedLocations.Add(r.VisitedLocations...)
	} else {
		p.VisitedLocations.Add(lo.Filter(r.Nodes, func(id int32, _ int) bool { return m.c.SalientNodes.Has(id) })...)
	}
	p.VisibilitySpace = VisibilitySpace(m.w, r, m.cfg.Learning)

	km := p.Length / 1000
	if km > 0 {
		p.Complexity = (math.Min(float64(p.Turns)/km/MAX_EVENTS_PER_KM, 1) +
			math.Min(float64(p.Intersections)/km/MAX_EVENTS_PER_KM, 1) +
			(1 - p.LocalLandmarkRatio) +
			directionalEntropy(line)) / 4
		p.Exposure = math.Min(p.CumulativeGlobalLandmarkness/p.Length*100, 1)
	}
	return p
}

// 相邻线段转角在8个区间上的归一化熵
func directionalEntropy(line orb.LineString) float64 {
	headings := make([]float64, 0, len(line))
	for i := 1; i < len(line); i++ {
		headings = append(headings, math.Atan2(line[i][1]-line[i-1][1], line[i][0]-line[i-1][0]))
	}
	if len(headings) < 2 {
		return 0
	}
	counts := make([]int, ENTROPY_BINS)
	for i := 1; i < len(headings); i++ {
		d := headings[i] - headings[i-1]
		d = math.Atan2(math.Sin(d), math.Cos(d))
		bin := min(int((d+math.Pi)/(2*math.Pi)*ENTROPY_BINS), ENTROPY_BINS-1)
		counts[bin]++
	}
	total := float64(len(headings) - 1)
	entropy := 0.0
	for _, c := range counts {
		if c > 0 {
			p := float64(c) / total
			entropy -= p * math.Log(p)
		}
	}
	return entropy / math.Log(ENTROPY_BINS)
}

// 新奇度：与已走路线的重叠长度比例和节点Jaccard距离的平均
func (m *Memorability) novelty(r *world.Route, p *RouteProperties, previous []*world.Route, rng *rand.Rand) float64 {
	if len(previous) < m.cfg.Learning.MinWalkedRoutes {
		return NOVELTY_MEAN + rng.NormFloat64()*NOVELTY_SD
	}
	edges := world.NewSet(r.Edges...)
	overlap := 0.0
	jaccard := 0.0
	nodes := world.NewSet(r.Nodes...)
	for _, prev := range previous {
		for _, id := range lo.Uniq(prev.Edges) {
			if edges.Has(id) {
				overlap += m.w.Edge(id).Length
			}
		}
		other := world.NewSet(prev.Nodes...)
		inter := lo.CountBy(lo.Keys(nodes), func(id int32) bool { return other.Has(id) })
		union := len(nodes.Clone().Union(other))
		if union > 0 {
			jaccard += 1 - float64(inter)/float64(union)
		}
	}
	byOverlap := 0.0
	if p.Length > 0 {
		byOverlap = 1 - overlap/p.Length
	}
	return (byOverlap + jaccard/float64(len(previous))) / 2
}

type factor func(*RouteProperties) float64

var meaningfulnessFactors = []factor{
	(*RouteProperties).Easiness,
	func(p *RouteProperties) float64 { return p.Exposure },
	func(p *RouteProperties) float64 { return p.Novelty },
}

// 当前值在以往路线分布中的正态累积概率
func zScoreCDF(v float64, values []float64) float64 {
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationPopulation(values)
	if sd == 0 {
		sd = FALLBACK_SD
	}
	return distuv.UnitNormal.CDF((v - mean) / sd)
}

func (m *Memorability) meaningfulness(p *RouteProperties, previous []*world.Route, localThreshold float64) float64 {
	if len(previous) == 0 {
		return 0
	}
	scores := make([]float64, 0, len(meaningfulnessFactors))
	for _, f := range meaningfulnessFactors {
		values := lo.Map(previous, func(r *world.Route, _ int) float64 {
			return f(m.Properties(r, localThreshold))
		})
		scores = append(scores, zScoreCDF(f(p), values))
	}
	mean, _ := stats.Mean(scores)
	return mean
}

// Evaluate 计算新奇度，走过足够多路线后计算意义度
func (m *Memorability) Evaluate(r *world.Route, previous []*world.Route, localThreshold float64, rng *rand.Rand) *RouteProperties {
	p := m.Properties(r, localThreshold)
	p.Novelty = m.novelty(r, p, previous, rng)
	if len(previous) > m.cfg.Learning.MinWalkedRoutes {
		p.Meaningfulness = m.meaningfulness(p, previous, localThreshold)
	}
	return p
}

// Reevaluate 初始路线互为参照重新计算新奇度与意义度
func (m *Memorability) Reevaluate(routes []*world.Route, localThreshold float64, rng *rand.Rand) {
	for _, r := range routes {
		others := lo.Filter(routes, func(o *world.Route, _ int) bool { return o != r })
		p := m.Properties(r, localThreshold)
		p.Novelty = m.novelty(r, p, others, rng)
		p.Meaningfulness = m.meaningfulness(p, others, localThreshold)
	}
}
