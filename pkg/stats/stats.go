package stats

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

// EnableMemoryStatistics enables go routine that periodically logs memory
// usage of the go process, until the context is done.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// PrintMemoryStatistics logs memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Debugf(
		"Heap allocated: %.3fGB, Allocated objects count: %v, "+
			"Num of go routines: %v",
		float64(memStats.HeapAlloc)/GIGABYTE,
		memStats.Mallocs,
		runtime.NumGoroutine(),
	)
}

// WriteMetrics writes all the metrics collected by the given gatherer in
// text format, one metric family per line.
func WriteMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(w)
	for _, f := range families {
		if _, err := writer.WriteString(f.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
