// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package api serves the admin HTTP surface: liveness and Prometheus
// metrics. The relay itself has no inbound HTTP API; this server exists
// for operators and scrapers.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// NewRouter builds the admin router.
func NewRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewServer builds the admin HTTP server for host:port.
func NewServer(host string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
