// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/dumpwarden/internal/backup"
)

// RunSource is the read side of *backup.Orchestrator.
type RunSource interface {
	State() backup.State
	LastRun() *backup.RunRecord
	Plans() []backup.Plan
}

// ScheduleSource is the read side of *scheduler.Scheduler.
type ScheduleSource interface {
	NextRun() time.Time
	Skipped() int64
}

// Config wires the router.
type Config struct {
	Runs RunSource

	// Schedule may be nil (e.g. a one-shot process).
	Schedule ScheduleSource

	// ScheduleDescription is shown in the status response.
	ScheduleDescription string

	Version string

	// RateLimit is requests per RateWindow per client IP. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration

	// MetricsHandler defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// Handler serves the status endpoints.
type Handler struct {
	runs        RunSource
	schedule    ScheduleSource
	description string
	version     string
	startTime   time.Time
}

// NewRouter builds the status router.
func NewRouter(cfg Config) http.Handler {
	h := &Handler{
		runs:        cfg.Runs,
		schedule:    cfg.Schedule,
		description: cfg.ScheduleDescription,
		version:     cfg.Version,
		startTime:   time.Now(),
	}
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
	r.Use(requestMetrics)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	return r
}

// rateLimit limits by client IP, or does nothing when requests is zero.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
		}),
	)
}
