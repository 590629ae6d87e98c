// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package backup is the retention-and-replication core of Dumpwarden.
//
// A backup run produces one fresh dump per source, fans it out to every
// configured destination, and trims each destination back to its own
// keep-last-N limit. Destinations fail independently: a Drive outage never
// keeps the artifact out of the repository, and a failed prune never undoes
// a successful upload.
//
// # Architecture
//
//	┌───────────┐   ┌──────────────┐   ┌─────────────┐   ┌──────────────┐
//	│ Scheduler │──▶│ Orchestrator │──▶│  Producer   │──▶│ local folder │
//	└───────────┘   └──────┬───────┘   └─────────────┘   └──────────────┘
//	                       │
//	                       ▼
//	                ┌──────────────┐     Store → List → Prune per target
//	                │ Coordinator  │──▶  remote folder │ repo folder │ local
//	                └──────┬───────┘
//	                       ▼
//	                ┌──────────────┐
//	                │ Syncer (git) │  once per run
//	                └──────────────┘
//
// # Components
//
//	Source        - immutable description of one database
//	Artifact      - one dump file; remote copies are independent of it
//	Destination   - Local, Remote (object store folder) or Repo (working tree folder)
//	SelectForDeletion - pure keep-last-N selection over a newest-first list
//	Coordinator   - per-artifact fan-out with failure isolation
//	Orchestrator  - sequential per-source run with a single repo sync at the end
//
// # Errors
//
// Failures are values, captured in the RunRecord:
//
//	*ProducerError  - ConnectionFailed, RemoteCommandFailed{ExitCode, Stderr}, TransferFailed
//	*StoreError     - the artifact did not reach a destination
//	*PruneError     - listing or deleting old artifacts failed after a successful store
//	*SyncError      - the batched repository publish failed
//
// All four unwrap to the underlying cause, so errors.Is(err, context.DeadlineExceeded)
// identifies timeouts.
//
// # Usage
//
//	orch, err := backup.NewOrchestrator(backup.OrchestratorConfig{
//	    Producer:    producer,
//	    Coordinator: backup.NewCoordinator(1, 5*time.Minute),
//	    Plans:       plans,
//	    Syncers:     []backup.Syncer{repo},
//	    Refreshers:  []backup.Refresher{driveSession},
//	})
//	rec, err := orch.Run(ctx)
package backup
