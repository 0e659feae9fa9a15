// Package benchmark - Functionality for benchmarking label assignment.
package benchmark

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// PerformanceMetrics captures detailed performance data for one scenario run.
type PerformanceMetrics struct {
	Scenario             Scenario      `json:"scenario"`
	Timestamp            time.Time     `json:"timestamp"`
	TotalDuration        time.Duration `json:"total_duration"`
	LatencyP50           time.Duration `json:"latency_p50"`
	LatencyP95           time.Duration `json:"latency_p95"`
	LatencyP99           time.Duration `json:"latency_p99"`
	AssignmentsPerSecond float64       `json:"assignments_per_second"`
	MemoryStats          MemoryMetrics `json:"memory_stats"`
	CPUStats             CPUMetrics    `json:"cpu_stats"`
	DeviceStats          DeviceMetrics `json:"device_stats"`
	ForegroundTotal      int           `json:"foreground_total"`
	ErrorRate            float64       `json:"error_rate"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU int `json:"num_cpu"`
}

// DeviceMetrics captures workspace pressure observed during a run: how often
// the primary device ran out and how many bytes moved between devices.
type DeviceMetrics struct {
	Fallbacks        uint64 `json:"fallbacks"`
	TransferredBytes int64  `json:"transferred_bytes"`
}

// latencyQuantiles summarizes per-image latencies, given in seconds.
func latencyQuantiles(seconds []float64) (p50, p95, p99 time.Duration) {
	if len(seconds) == 0 {
		return 0, 0, 0
	}
	sorted := append([]float64(nil), seconds...)
	sort.Float64s(sorted)

	q := func(p float64) time.Duration {
		return time.Duration(stat.Quantile(p, stat.Empirical, sorted, nil) * float64(time.Second))
	}
	return q(0.5), q(0.95), q(0.99)
}
