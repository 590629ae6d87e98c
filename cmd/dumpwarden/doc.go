// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package main is the dumpwarden command.

Dumpwarden dumps MySQL databases over SSH on a schedule, keeps the last N
dumps in a local archive, and replicates every dump to Google Drive folders,
S3 prefixes and a git repository, each with its own keep-last-N limit.

# Commands

	dumpwarden [serve]   run the scheduler and the status server (default)
	dumpwarden once      run one backup now and exit (non-zero on any failure)
	dumpwarden auth      authorize Google Drive once and write the token file
	dumpwarden version   print version information

All commands accept --config (defaults to $CONFIG_PATH, then dumpwarden.yaml,
config.yaml, /etc/dumpwarden/config.yaml).

# Process Tree

	RootSupervisor ("dumpwarden")
	├── BackupSupervisor ("backup-layer")
	│   └── backup-scheduler
	└── StatusSupervisor ("status-layer")
	    └── status-server (GET /healthz, /metrics, /api/v1/status)

# Startup

 1. Configuration: koanf (defaults, YAML file, environment, .env secrets)
 2. Logging: zerolog (JSON or console)
 3. Drive session: token file loaded and refreshed; failure is fatal
 4. Object stores: Drive and S3 clients behind rate limiters and circuit breakers
 5. Repository: git working tree check
 6. Plans: per source, configured destinations first, local archive last
 7. Orchestrator, scheduler, supervisor tree

Any error before the tree starts exits with status 1.
*/
package main
