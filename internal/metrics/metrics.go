// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package metrics exposes Prometheus instrumentation for the relay
// pipeline. Metrics are served at /metrics by the admin HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll cycle metrics

	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_poll_cycles_total",
			Help: "Total number of poll cycles per organization",
		},
		[]string{"org", "result"}, // result: "ok", "read_error", "fetch_error", "persist_error"
	)

	PollCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watch_poll_cycle_duration_seconds",
			Help:    "Duration of one fetch-classify-dispatch-persist cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"org"},
	)

	EventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_events_fetched_total",
			Help: "Raw events returned by the event feed",
		},
		[]string{"org"},
	)

	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_events_dispatched_total",
			Help: "Events that produced at least one sink delivery",
		},
		[]string{"org", "type"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_dispatch_failures_total",
			Help: "Per-event sink delivery failures (delivery is best-effort)",
		},
		[]string{"org", "sink"},
	)

	Watermark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watch_watermark",
			Help: "Highest event id persisted per organization",
		},
		[]string{"org"},
	)

	// GitHub API metrics

	APIRateRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "github_rate_limit_remaining",
			Help: "Remaining GitHub API requests as reported by the last response",
		},
		[]string{"org"},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// Release pipeline metrics

	RendererJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderer_jobs_total",
			Help: "Release image renderer job outcomes",
		},
		[]string{"result"}, // "ok", "exec_error", "upload_error", "post_error"
	)

	RendererDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renderer_job_duration_seconds",
			Help:    "Wall time of one renderer subprocess invocation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
