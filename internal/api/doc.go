// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package api serves Dumpwarden's read-only status endpoints with chi.

# Routes

	GET /healthz         liveness plus a summary of the last run
	GET /metrics         Prometheus exposition (promhttp)
	GET /api/v1/status   orchestrator phase, next scheduled run, configured
	                     plans and the full record of the last run

There is no endpoint that starts or changes a run. Every route is rate
limited per client IP with httprate and counted in
the http_requests_total metric under its chi route pattern.

# Response Format

/healthz and /api/v1/status use the envelope:

	{
	  "status": "success",
	  "data": { ... },
	  "metadata": {"timestamp": "2026-03-01T02:00:00Z"},
	  "error": {"code": "...", "message": "..."}   // only on errors
	}
*/
package api
