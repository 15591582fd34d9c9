package engine

import (
	"cmp"
	"slices"
	"sync"

	"git.fiblab.net/sim/wayfinding/agent"
	"git.fiblab.net/sim/wayfinding/world"
	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
)

type flowKey struct {
	id  int32
	tag string
}

// CountRecord 某条边（或某栋建筑）在某场景标签下的计数
type CountRecord struct {
	ID    int32  `db:"id" bson:"id"`
	Tag   string `db:"tag" bson:"tag"`
	Count int64  `db:"count" bson:"count"`
}

// TripRecord 一次完成的出行
type TripRecord struct {
	Agent       int32          `bson:"agent"`
	Tag         string         `bson:"tag"`
	Origin      int32          `bson:"origin"`
	Destination int32          `bson:"destination"`
	Edges       []int32        `bson:"edges"`
	Line        orb.LineString `bson:"-"`
	Length      float64        `bson:"length"`
}

// DayFlows 一天的输出
type DayFlows struct {
	Day int
	// 各边被走过的次数
	Volumes []CountRecord
	// 认识各边、各地标建筑的代理数
	KnownEdges     []CountRecord
	KnownLandmarks []CountRecord
	Trips          []TripRecord
}

// FlowHandler 汇总代理完成的出行，可被多个代理并发调用
type FlowHandler struct {
	w      *world.World
	routes bool

	volumes *xsync.MapOf[flowKey, int64]
	mu      sync.Mutex
	trips   []TripRecord
}

// NewFlowHandler routes为true时保留每次出行的路线
func NewFlowHandler(w *world.World, routes bool) *FlowHandler {
	return &FlowHandler{
		w:       w,
		routes:  routes,
		volumes: xsync.NewMapOf[flowKey, int64](),
		trips:   make([]TripRecord, 0),
	}
}

func (f *FlowHandler) TripCompleted(a *agent.Agent, r *world.Route) {
	tag := a.Tag()
	for _, e := range r.Edges {
		f.volumes.Compute(flowKey{id: e, tag: tag}, func(old int64, _ bool) (int64, bool) {
			return old + 1, false
		})
	}
	if !f.routes {
		return
	}
	rec := TripRecord{
		Agent:       a.ID,
		Tag:         tag,
		Origin:      r.Origin,
		Destination: r.Destination,
		Edges:       slices.Clone(r.Edges),
		Line:        r.Line(f.w),
		Length:      r.Length(f.w),
	}
	f.mu.Lock()
	f.trips = append(f.trips, rec)
	f.mu.Unlock()
}

// Volume 当天目前为止edge在tag下的流量
func (f *FlowHandler) Volume(edge int32, tag string) int64 {
	v, _ := f.volumes.Load(flowKey{id: edge, tag: tag})
	return v
}

// EndDay 取出当天的流量与出行并清零，同时统计各代理认知地图中已知的边与地标
func (f *FlowHandler) EndDay(day int, agents []*agent.Agent) *DayFlows {
	out := &DayFlows{Day: day}
	f.volumes.Range(func(k flowKey, v int64) bool {
		out.Volumes = append(out.Volumes, CountRecord{ID: k.id, Tag: k.tag, Count: v})
		return true
	})
	f.volumes.Clear()
	f.mu.Lock()
	out.Trips, f.trips = f.trips, make([]TripRecord, 0)
	f.mu.Unlock()
	slices.SortFunc(out.Trips, func(a, b TripRecord) int {
		return cmp.Compare(a.Agent, b.Agent)
	})

	edges, landmarks := make(map[flowKey]int64), make(map[flowKey]int64)
	for _, a := range agents {
		m := a.Map()
		if !m.Formed() {
			continue
		}
		tag := a.Tag()
		if n := m.KnownNetwork(); n != nil {
			for id := range n.Edges {
				edges[flowKey{id: id, tag: tag}]++
			}
		}
		for id := range m.KnownLocalLandmarks() {
			landmarks[flowKey{id: id, tag: tag}]++
		}
	}
	out.KnownEdges = countRecords(edges)
	out.KnownLandmarks = countRecords(landmarks)
	sortCounts(out.Volumes)
	return out
}

func countRecords(m map[flowKey]int64) []CountRecord {
	out := make([]CountRecord, 0, len(m))
	for k, v := range m {
		out = append(out, CountRecord{ID: k.id, Tag: k.tag, Count: v})
	}
	sortCounts(out)
	return out
}

func sortCounts(records []CountRecord) {
	slices.SortFunc(records, func(a, b CountRecord) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
}
