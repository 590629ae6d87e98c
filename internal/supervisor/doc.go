// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package supervisor runs Dumpwarden's long-lived services under suture v4.

# Tree

	RootSupervisor ("dumpwarden")
	├── BackupSupervisor ("backup-layer")
	│   └── SchedulerService
	└── StatusSupervisor ("status-layer")
	    └── HTTPServerService (if server.enabled)

A crashing status server is restarted without touching the scheduler, and a
panicking scheduler loop is restarted with backoff without taking the status
endpoint down with it. Supervisor events are logged through sutureslog into
the zerolog-backed slog handler from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddBackupService(services.NewSchedulerService(sched))
	tree.AddStatusService(services.NewHTTPServerService(srv, cfg.Server.Addr, cfg.Server.ShutdownTimeout))

	return tree.Serve(ctx)

See the services sub-package for the wrappers.
*/
package supervisor
