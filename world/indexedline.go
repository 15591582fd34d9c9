package world

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// IndexedLine 按弧长索引的有向折线
type IndexedLine struct {
	line orb.LineString
	// 各顶点到起点的累计长度
	lengths []float64
}

func newIndexedLine(line orb.LineString) *IndexedLine {
	l := &IndexedLine{line: line, lengths: make([]float64, len(line))}
	for i := 1; i < len(line); i++ {
		l.lengths[i] = l.lengths[i-1] + planar.Distance(line[i-1], line[i])
	}
	return l
}

// IndexedLine 有向边的弧长索引，结果缓存
func (w *World) IndexedLine(d DirectedEdge) *IndexedLine {
	l, _ := w.lines.LoadOrCompute(d, func() *IndexedLine {
		e := w.Edge(d.Edge)
		line := e.Line.Clone()
		if d.From != e.From {
			line.Reverse()
		}
		return newIndexedLine(line)
	})
	return l
}

func (l *IndexedLine) Length() float64 {
	return l.lengths[len(l.lengths)-1]
}

func (l *IndexedLine) Line() orb.LineString {
	return l.line
}

// ExtractPoint 弧长s处的点，s越界时截断到端点
func (l *IndexedLine) ExtractPoint(s float64) orb.Point {
	if s <= 0 {
		return l.line[0]
	}
	if s >= l.Length() {
		return l.line[len(l.line)-1]
	}
	i := sort.SearchFloat64s(l.lengths, s)
	seg := l.lengths[i] - l.lengths[i-1]
	k := (s - l.lengths[i-1]) / seg
	a, b := l.line[i-1], l.line[i]
	return orb.Point{a[0] + k*(b[0]-a[0]), a[1] + k*(b[1]-a[1])}
}
