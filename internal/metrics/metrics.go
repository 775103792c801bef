// Package metrics collects counters for an import run and can dump them in
// the Prometheus text exposition format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIRetriesTotal    *prometheus.CounterVec
	DocumentsTotal     *prometheus.CounterVec
	FetchFailuresTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainmd_api_requests_total",
				Help: "Total number of Raindrop API requests",
			},
			[]string{"endpoint", "status"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rainmd_api_request_duration_seconds",
				Help:    "Duration of Raindrop API requests",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		APIRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainmd_api_retries_total",
				Help: "Total number of retried Raindrop API requests",
			},
			[]string{"reason"}, // rate_limit, error
		),
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainmd_documents_total",
				Help: "Total number of processed documents",
			},
			[]string{"outcome"}, // created, updated, skipped, error
		),
		FetchFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rainmd_fetch_failures_total",
				Help: "Total number of fetch units abandoned after an error",
			},
			[]string{"scope"}, // collection, tag, search, all
		),
	}
}

// ObserveRequest records one HTTP exchange. status 0 means the request
// never produced a response.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveRetry(reason string) {
	if m == nil {
		return
	}
	m.APIRetriesTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetchFailure(scope string) {
	if m == nil {
		return
	}
	m.FetchFailuresTotal.WithLabelValues(scope).Inc()
}

// WriteTextfile writes all collected metrics to path, in the format the
// node_exporter textfile collector reads.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
