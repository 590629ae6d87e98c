// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run Metrics
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of completed backup runs",
		},
		[]string{"status"}, // "ok", "partial"
	)

	BackupRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_run_duration_seconds",
			Help:    "Duration of backup runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	BackupLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed backup run",
		},
	)

	BackupRunInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_run_in_progress",
			Help: "1 while a backup run is active, 0 otherwise",
		},
	)

	SchedulerSkippedTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_scheduler_skipped_ticks_total",
			Help: "Ticks dropped because a run was already in progress",
		},
	)

	// Producer Metrics
	ProducerResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_producer_results_total",
			Help: "Dump production attempts by source and result",
		},
		[]string{"source", "result"}, // result: "ok", "connection_failed", "remote_command_failed", "transfer_failed", "error"
	)

	ProducerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_producer_duration_seconds",
			Help:    "Duration of dump production in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)

	ArtifactBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_artifact_size_bytes",
			Help: "Size of the most recent artifact per source",
		},
		[]string{"source"},
	)

	// Replication Metrics
	ReplicationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_replication_outcomes_total",
			Help: "Replication outcomes per destination",
		},
		[]string{"source", "kind", "outcome"}, // outcome: "stored", "store_failed", "prune_failed"
	)

	ArtifactsPruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_artifacts_pruned_total",
			Help: "Artifacts selected and deleted by retention",
		},
		[]string{"source", "kind"},
	)

	// Repository Sync Metrics
	RepoSyncResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_repo_sync_total",
			Help: "Repository sync attempts by result",
		},
		[]string{"result"}, // "ok", "failed"
	)

	// Session Metrics
	SessionRefreshResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_session_refresh_total",
			Help: "Cloud session refresh attempts by result",
		},
		[]string{"session", "result"},
	)

	// Object Store Metrics
	ObjectStoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_store_requests_total",
			Help: "Requests issued to object stores",
		},
		[]string{"store", "operation", "result"},
	)

	ObjectStoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "object_store_request_duration_seconds",
			Help:    "Object store request latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"store", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP Metrics (status server)
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests to the status server",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordRun records a finished backup run.
func RecordRun(duration time.Duration, finishedAt time.Time, partial bool) {
	status := "ok"
	if partial {
		status = "partial"
	}
	BackupRunsTotal.WithLabelValues(status).Inc()
	BackupRunDuration.Observe(duration.Seconds())
	BackupLastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// SetRunInProgress toggles the in-progress gauge.
func SetRunInProgress(active bool) {
	if active {
		BackupRunInProgress.Set(1)
		return
	}
	BackupRunInProgress.Set(0)
}

// RecordSkippedTick counts a tick dropped by the single-flight scheduler.
func RecordSkippedTick() {
	SchedulerSkippedTicks.Inc()
}

// RecordProducer records one produce attempt. result is "ok" or an error kind.
func RecordProducer(source, result string, duration time.Duration, sizeBytes int64) {
	ProducerResults.WithLabelValues(source, result).Inc()
	ProducerDuration.WithLabelValues(source).Observe(duration.Seconds())
	if result == "ok" {
		ArtifactBytes.WithLabelValues(source).Set(float64(sizeBytes))
	}
}

// RecordReplication records one destination outcome and how many artifacts were pruned.
func RecordReplication(source, kind, outcome string, pruned int) {
	ReplicationOutcomes.WithLabelValues(source, kind, outcome).Inc()
	if pruned > 0 {
		ArtifactsPruned.WithLabelValues(source, kind).Add(float64(pruned))
	}
}

// RecordRepoSync records a repository sync attempt.
func RecordRepoSync(err error) {
	if err != nil {
		RepoSyncResults.WithLabelValues("failed").Inc()
		return
	}
	RepoSyncResults.WithLabelValues("ok").Inc()
}

// RecordSessionRefresh records a session refresh attempt.
func RecordSessionRefresh(session string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	SessionRefreshResults.WithLabelValues(session, result).Inc()
}

// RecordObjectStoreRequest records an object store call.
func RecordObjectStoreRequest(store, operation string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ObjectStoreRequests.WithLabelValues(store, operation, result).Inc()
	ObjectStoreRequestDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
}

// RecordAPIRequest records a status server request.
func RecordAPIRequest(method, endpoint, status string) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}
