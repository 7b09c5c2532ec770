// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks per-assistant invocation counts and latencies. Each server
// owns its registry so multiple servers in one process never collide.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the metric set on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistgate",
			Name:      "invocations_total",
			Help:      "Assistant invocations by assistant, operation, and result.",
		}, []string{"assistant", "operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistgate",
			Name:      "invocation_duration_seconds",
			Help:      "Wall-clock duration of assistant subprocess invocations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"assistant", "operation"}),
	}
}

// ObserveInvocation records one finished invocation. The result label is
// "success" for successful outcomes and the error kind otherwise.
func (m *Metrics) ObserveInvocation(assistantID, operation string, success bool, errorKind string, elapsed time.Duration) {
	result := "success"
	if !success {
		result = errorKind
		if result == "" {
			result = "error"
		}
	}
	m.invocations.WithLabelValues(assistantID, operation, result).Inc()
	m.duration.WithLabelValues(assistantID, operation).Observe(elapsed.Seconds())
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
