// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package logging provides centralized zerolog-based structured logging for Dumpwarden.
//
// Every component logs through the global logger configured here, so a single
// backup run produces one coherent stream of JSON lines that can be followed
// by its run ID.
//
// # Quick Start
//
//	import "github.com/tomtom215/dumpwarden/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("source", "bopo").Msg("Dump produced")
//	logging.Error().Err(err).Str("destination", "drive:EXT_test").Msg("Store failed")
//
// # Run Correlation
//
// The orchestrator assigns each run a short ID and stores it in the context:
//
//	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
//	logging.Ctx(ctx).Info().Msg("Run started")
//	// {"level":"info","run_id":"1f2e3d4c","message":"Run started"}
//
// # Field Conventions
//
//	run_id       - identifier of the backup run
//	source       - source key (bopo, ext_prod, ...)
//	destination  - destination name (local:BOPO_test, drive:<folder>, repo:<path>)
//	kind         - destination kind (local, remote, repo)
//	outcome      - stored, store_failed, prune_failed
//	pruned       - number of artifacts deleted by retention
//
// # Configuration
//
// Environment variables (via the config package):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # slog Integration
//
// Suture v4 logs through sutureslog, which needs a *slog.Logger.
// NewSlogLogger returns one that writes through zerolog:
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
//
// # Thread Safety
//
// All functions are safe for concurrent use. The global logger is guarded by
// a RWMutex; Init and SetLogger take the write lock.
package logging
