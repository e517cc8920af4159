package vigil

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsFree(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSessionOpened)
	m.Add(MetricFramesAccepted, 100)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Value(MetricSessionOpened) != 0 {
		t.Fatal("disabled metrics recorded a count")
	}
	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("disabled snapshot = %+v", s)
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricTelemetryAccepted)
				m.Add(MetricFramesAccepted, 3)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricTelemetryAccepted); got != 8000 {
		t.Fatalf("MetricTelemetryAccepted = %d, want 8000", got)
	}
	if got := m.Value(MetricFramesAccepted); got != 24000 {
		t.Fatalf("MetricFramesAccepted = %d, want 24000", got)
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricValidateLatency, 50*time.Microsecond)
	m.Observe(MetricValidateLatency, 5*time.Millisecond)
	// Only the latency metric carries a histogram.
	m.Observe(MetricPing, time.Millisecond)

	s := m.Snapshot()
	var total uint64
	for _, n := range s.Histograms[MetricValidateLatency] {
		total += n
	}
	if total != 2 {
		t.Fatalf("histogram samples = %d, want 2", total)
	}
	if len(s.Histograms[MetricPing]) != 0 {
		for _, n := range s.Histograms[MetricPing] {
			if n != 0 {
				t.Fatal("ping should not collect latency samples")
			}
		}
	}
}

func TestEngineCountsProtocolOutcomes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true

	spec, key := newTestKeySpec(t, "1.0")
	e := newTestEngine(t, cfg, []KeySpec{spec})

	tr := &fakeTransport{}
	nonce := openSession(t, e, "c1", tr)
	if err := e.Receive(context.Background(), "c1", gcmEnvelope(t, key, nonce)); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if err := e.Receive(context.Background(), "c1", telemetryMsg(1, 0, `[{"x":1,"y":1},{"x":2,"y":2}]`)); err != nil {
		t.Fatalf("telemetry rejected: %v", err)
	}
	if err := e.Receive(context.Background(), "c1", []byte(`{"cmd":"ping"}`)); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	e.Receive(context.Background(), "c1", telemetryMsg(9, 0, ""))

	s := e.MetricsSnapshot()
	for id, want := range map[MetricID]uint64{
		MetricSessionOpened:       1,
		MetricHandshakeAuthorized: 1,
		MetricTelemetryAccepted:   1,
		MetricFramesAccepted:      2,
		MetricPing:                1,
		MetricKillSequence:        1,
		MetricSessionClosed:       1,
	} {
		if s.Counters[id] != want {
			t.Errorf("counter %d = %d, want %d", id, s.Counters[id], want)
		}
	}
}
