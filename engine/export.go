package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run 一次模拟运行，导出的每一行都带有它的标识
type Run struct {
	ID      uuid.UUID
	Job     int
	City    string
	Started time.Time
}

func NewRun(job int, city string) Run {
	return Run{ID: uuid.New(), Job: job, City: city, Started: time.Now()}
}

// Exporter 每日结果的输出
type Exporter interface {
	Begin(ctx context.Context, run Run) error
	Export(ctx context.Context, run Run, flows *DayFlows) error
	Close(ctx context.Context) error
}

// 按size切分
func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, len(items)/max(size, 1)+1)
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
