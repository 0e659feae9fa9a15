package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	calls int
}

func (s *stubCollector) CollectMetrics() map[string]float64 {
	s.calls++
	return map[string]float64{"stub_metric": float64(s.calls)}
}

func TestRecordMetric(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 3})

	rp.RecordMetric("latency_ms", 10)
	rp.RecordMetric("latency_ms", 30)
	rp.RecordMetric("latency_ms", 20)

	tracker := rp.customMetrics["latency_ms"]
	require.NotNil(t, tracker)
	assert.Equal(t, int64(3), tracker.count)
	assert.Equal(t, float64(10), tracker.min)
	assert.Equal(t, float64(30), tracker.max)
	assert.Equal(t, float64(60), tracker.sum)

	// The window keeps the newest MaxSamples values.
	rp.RecordMetric("latency_ms", 40)
	tracker = rp.customMetrics["latency_ms"]
	assert.Len(t, tracker.values, 3)
	assert.Equal(t, []float64{30, 20, 40}, tracker.values)
	assert.Equal(t, float64(90), tracker.sum)
}

func TestStartOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	stop := rp.StartOperation("assignment")
	time.Sleep(time.Millisecond)
	stop()

	tracker := rp.operationTimes["assignment"]
	require.NotNil(t, tracker)
	assert.Equal(t, int64(1), tracker.count)
	assert.Greater(t, tracker.totalTime, time.Duration(0))
	assert.LessOrEqual(t, tracker.minTime, tracker.maxTime)
}

func TestCollectSample(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	collector := &stubCollector{}
	rp.AddMetricsCollector(collector)

	rp.collectSample()
	rp.collectSample()

	assert.Equal(t, 2, collector.calls)
	tracker := rp.customMetrics["stub_metric"]
	require.NotNil(t, tracker)
	assert.Equal(t, int64(2), tracker.count)
	assert.Len(t, rp.samples, 2)
}

func TestStartStop(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{
		ReportInterval: time.Hour,
		SampleInterval: 5 * time.Millisecond,
	})

	rp.Start()
	rp.Start() // second call is a no-op
	time.Sleep(25 * time.Millisecond)
	rp.Stop()
	rp.Stop() // idempotent

	rp.mu.RLock()
	defer rp.mu.RUnlock()
	assert.NotEmpty(t, rp.samples)
}

func TestGetCurrentStats(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	rp.RecordMetric("foreground_per_image", 12)
	rp.StartOperation("assignment")()

	stats := rp.GetCurrentStats()

	assert.Contains(t, stats, "uptime")
	assert.Contains(t, stats, "memory")

	custom, ok := stats["custom_metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, custom, "foreground_per_image")

	ops, ok := stats["operations"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, ops, "assignment")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(3*512*1024))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
}
