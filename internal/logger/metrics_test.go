package logger

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("runs.total")
	m.IncrCounter("runs.total")
	m.IncrCounter("runs.total")

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	if counters["runs.total"] != 3 {
		t.Errorf("Counter = %v, want 3", counters["runs.total"])
	}
	if m.Counter("runs.total") != 3 {
		t.Errorf("Counter() = %v, want 3", m.Counter("runs.total"))
	}
	if m.Counter("missing") != 0 {
		t.Errorf("Counter(missing) = %v, want 0", m.Counter("missing"))
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("showings.current", 12)
	m.SetGauge("showings.current", 14)

	snapshot := m.GetSnapshot()
	gauges := snapshot["gauges"].(map[string]float64)

	if gauges["showings.current"] != 14 {
		t.Errorf("Gauge = %v, want 14", gauges["showings.current"])
	}
	if m.Gauge("showings.current") != 14 {
		t.Errorf("Gauge() = %v, want 14", m.Gauge("showings.current"))
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("fetch.duration", 100*time.Millisecond)
	m.RecordTiming("fetch.duration", 200*time.Millisecond)
	m.RecordTiming("fetch.duration", 150*time.Millisecond)

	snapshot := m.GetSnapshot()
	timings := snapshot["timings"].(map[string]map[string]interface{})

	fetch := timings["fetch.duration"]
	if fetch["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", fetch["count"])
	}
	if fetch["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", fetch["min"])
	}
	if fetch["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", fetch["max"])
	}
	if fetch["average"].(string) != "150ms" {
		t.Errorf("Average timing = %v, want 150ms", fetch["average"])
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrCounter("runs.total")
			m.RecordTiming("run.duration", time.Millisecond)
			_ = m.GetSnapshot()
		}()
	}
	wg.Wait()

	if m.Counter("runs.total") != 50 {
		t.Errorf("Counter = %v, want 50", m.Counter("runs.total"))
	}
}

func TestPackageLevelMetrics(t *testing.T) {
	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)

	snapshot := GetMetricsSnapshot()
	if snapshot == nil {
		t.Fatal("GetMetricsSnapshot() returned nil")
	}
	if DefaultMetrics().Gauge("test") != 42.0 {
		t.Errorf("Gauge = %v, want 42", DefaultMetrics().Gauge("test"))
	}
}
