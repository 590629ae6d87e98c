// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package metrics provides Prometheus metrics for backup runs.

Metrics are registered on the default registry with promauto and exposed by
the status server at /metrics:

	curl http://127.0.0.1:9477/metrics

# Available Metrics

Runs:
  - backup_runs_total{status}: completed runs, "ok" or "partial"
  - backup_run_duration_seconds: run latency (histogram)
  - backup_last_run_timestamp_seconds: completion time of the last run
  - backup_run_in_progress: 1 while a run is active
  - backup_scheduler_skipped_ticks_total: ticks dropped by single-flight

Producer:
  - backup_producer_results_total{source,result}
  - backup_producer_duration_seconds{source}
  - backup_artifact_size_bytes{source}

Replication:
  - backup_replication_outcomes_total{source,kind,outcome}
  - backup_artifacts_pruned_total{source,kind}
  - backup_repo_sync_total{result}
  - backup_session_refresh_total{session,result}

Object stores:
  - object_store_requests_total{store,operation,result}
  - object_store_request_duration_seconds{store,operation}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

# Usage

Call the Record* helpers instead of touching the vectors directly:

	metrics.RecordReplication("bopo", "remote", "stored", 2)
	metrics.RecordRepoSync(err)

# Alerting Examples

	# No successful run in 26 hours
	time() - backup_last_run_timestamp_seconds > 26 * 3600

	# A destination keeps failing
	increase(backup_replication_outcomes_total{outcome="store_failed"}[3d]) >= 3
*/
package metrics
