package main

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/kpibonus/pkg/metrics"
)

const processMetricsInterval = 10 * time.Second

// processSample is one reading of the runtime counters exported as metrics.
type processSample struct {
	heapBytes    uint64
	goroutines   int
	avgGCPauseMs float64
	gcRuns       uint32
}

func sampleProcess() processSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := processSample{
		heapBytes:  ms.Alloc,
		goroutines: runtime.NumGoroutine(),
		gcRuns:     ms.NumGC,
	}
	if ms.NumGC > 0 {
		s.avgGCPauseMs = float64(ms.PauseTotalNs) / float64(ms.NumGC) / float64(time.Millisecond)
	}
	return s
}

func (s processSample) publish() {
	metrics.UpdateSystemMemoryUsage(s.heapBytes)
	metrics.UpdateSystemGoroutineCount(s.goroutines)
	if s.gcRuns > 0 {
		metrics.RecordSystemGCPauseTime(s.avgGCPauseMs)
	}
}

// startSystemMetricsUpdater publishes a process sample immediately and then
// every processMetricsInterval until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	sampleProcess().publish()

	ticker := time.NewTicker(processMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sampleProcess().publish()
		}
	}
}
