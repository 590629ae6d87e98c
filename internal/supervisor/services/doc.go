// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package services adapts Dumpwarden components to suture's Serve pattern.

Each wrapper implements suture.Service and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

SchedulerService (backup layer):
  - Wraps *scheduler.Scheduler (Start/Stop lifecycle)
  - Stop cancels an in-flight backup run and waits for it

HTTPServerService (status layer):
  - Wraps *http.Server (ListenAndServe/Shutdown lifecycle)
  - http.ErrServerClosed is treated as a clean stop

Returning an error from Serve makes suture restart the service with backoff;
returning ctx.Err() after cancellation is a clean shutdown.
*/
package services
