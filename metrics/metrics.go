// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "guild_elections"

// Metrics holds the Prometheus collectors for engine operations and the
// HTTP layer.
type Metrics struct {
	operations      *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	scheduledStarts prometheus.Counter
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.operations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "election engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
	m.operationTime = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "election engine operation latency, lock wait included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	m.httpRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)
	m.scheduledStarts = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_voting_starts_total",
			Help:      "elections moved to voting by the scheduler",
		},
	)

	return m
}

// Observe implements election.Recorder
func (m *Metrics) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationTime.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRequest counts one HTTP response
func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// AddScheduledStarts counts elections promoted by the scheduler
func (m *Metrics) AddScheduledStarts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.scheduledStarts.Add(float64(n))
}
