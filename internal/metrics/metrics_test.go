package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-formflow/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(registry))

	m.ObserveRequest("/sessions/{id}", "GET", "200", 10*time.Millisecond)
	m.Transition("deposits", "next")
	m.Transition("deposits", "next")
	m.Submission("deposits", "field_errors")
	m.Search("farmer", "ok", time.Millisecond)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	count, err := testutil.GatherAndCount(registry,
		"formflow_http_requests_total",
		"formflow_step_transitions_total",
		"formflow_submissions_total",
		"formflow_option_searches_total",
		"formflow_active_sessions",
	)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 series, got %d", count)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	m.Transition("x", "next")
	m.Submission("x", "success")
	m.SessionOpened()
}
