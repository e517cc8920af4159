package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vigil-ac/vigil"
)

type fakeSource struct {
	snapshot vigil.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() vigil.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                   { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: vigil.MetricsSnapshot{
			Counters:   map[vigil.MetricID]uint64{},
			Histograms: map[vigil.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: vigil.MetricsSnapshot{
			Counters: map[vigil.MetricID]uint64{
				vigil.MetricKillSpeedhack: 7,
			},
			Histograms: map[vigil.MetricID][]uint64{
				vigil.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "vigil_kill_speedhack_total 7") {
		t.Fatalf("expected speedhack kill counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "vigil_validate_latency_seconds_bucket{le=\"0.00005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "vigil_validate_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "vigil_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: vigil.MetricsSnapshot{
			Counters:   map[vigil.MetricID]uint64{vigil.MetricSessionOpened: 1},
			Histograms: map[vigil.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderFromEngine(t *testing.T) {
	cfg := vigil.DefaultConfig()
	cfg.Metrics.Enabled = true

	engine, err := vigil.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "vigil_session_opened_total 0") {
		t.Fatalf("expected engine counters in output, got:\n%s", out)
	}
}
