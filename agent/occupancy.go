package agent

import (
	"github.com/montanaflynn/stats"
	"github.com/puzpuzpuz/xsync/v3"
)

// Occupancy 各条边上正在行走的代理数，所有代理共享
type Occupancy struct {
	counts *xsync.MapOf[int32, int32]
}

func NewOccupancy() *Occupancy {
	return &Occupancy{counts: xsync.NewMapOf[int32, int32]()}
}

// Enter 代理进入边
func (o *Occupancy) Enter(edge int32) {
	o.counts.Compute(edge, func(old int32, _ bool) (int32, bool) {
		return old + 1, false
	})
}

// Leave 代理离开边，计数归零时删除
func (o *Occupancy) Leave(edge int32) {
	o.counts.Compute(edge, func(old int32, loaded bool) (int32, bool) {
		if !loaded || old <= 1 {
			return 0, true
		}
		return old - 1, false
	})
}

func (o *Occupancy) Count(edge int32) int32 {
	v, _ := o.counts.Load(edge)
	return v
}

// Total 所有边上的代理数之和
func (o *Occupancy) Total() int {
	total := 0
	o.counts.Range(func(_ int32, v int32) bool {
		total += int(v)
		return true
	})
	return total
}

// Crowded 边上的人数不低于所有有人的边人数的percentile分位数（最近秩）
func (o *Occupancy) Crowded(edge int32, percentile float64) bool {
	count := o.Count(edge)
	if count == 0 {
		return false
	}
	data := make(stats.Float64Data, 0, o.counts.Size())
	o.counts.Range(func(_ int32, v int32) bool {
		if v > 0 {
			data = append(data, float64(v))
		}
		return true
	})
	threshold, err := stats.PercentileNearestRank(data, percentile)
	if err != nil {
		return false
	}
	return float64(count) >= threshold
}
