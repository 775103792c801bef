package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveRequest("raindrops", 200, 10*time.Millisecond)
	m.ObserveRequest("raindrops", 200, 20*time.Millisecond)
	m.ObserveRequest("raindrops", 0, time.Millisecond)
	m.ObserveRetry("rate_limit")
	m.ObserveDocument("created")
	m.ObserveDocument("created")
	m.ObserveDocument("skipped")
	m.ObserveFetchFailure("collection")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"requests 200", testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("raindrops", "200")), 2},
		{"requests none", testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("raindrops", "none")), 1},
		{"retries", testutil.ToFloat64(m.APIRetriesTotal.WithLabelValues("rate_limit")), 1},
		{"created", testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("created")), 2},
		{"skipped", testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("skipped")), 1},
		{"failures", testutil.ToFloat64(m.FetchFailuresTotal.WithLabelValues("collection")), 1},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("user", 200, time.Second)
	m.ObserveRetry("error")
	m.ObserveDocument("error")
	m.ObserveFetchFailure("tag")
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("expected nil error for nil metrics, got %v", err)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveDocument("updated")

	path := filepath.Join(t.TempDir(), "rainmd.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `rainmd_documents_total{outcome="updated"} 1`) {
		t.Errorf("expected documents counter in textfile, got:\n%s", data)
	}
}
