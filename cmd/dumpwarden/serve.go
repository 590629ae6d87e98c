// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/dumpwarden/internal/api"
	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/scheduler"
	"github.com/tomtom215/dumpwarden/internal/supervisor"
	"github.com/tomtom215/dumpwarden/internal/supervisor/services"
)

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logging.Info().Str("version", version).Int("sources", len(cfg.Sources)).Msg("Starting Dumpwarden")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Startup failed")
		return err
	}

	schedule, err := scheduler.FromConfig(cfg.Schedule)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	sched := scheduler.New(schedule, func(ctx context.Context) error {
		_, err := orch.Run(ctx)
		if errors.Is(err, backup.ErrRunInProgress) {
			return nil
		}
		return err
	}, scheduler.Options{RunOnStart: cfg.Schedule.RunOnStart})

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddBackupService(services.NewSchedulerService(sched))

	if cfg.Server.Enabled {
		server := &http.Server{
			Handler: api.NewRouter(api.Config{
				Runs:                orch,
				Schedule:            sched,
				ScheduleDescription: schedule.String(),
				Version:             version,
				RateLimit:           cfg.Server.RateLimit,
				RateWindow:          cfg.Server.RateWindow,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		tree.AddStatusService(services.NewHTTPServerService(server, cfg.Server.Addr, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", cfg.Server.Addr).Msg("Status server enabled")
	}

	errCh := tree.ServeBackground(ctx)
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for services to stop")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Dumpwarden stopped")
	return nil
}

// runOnce performs a single run. It fails when anything in the run failed,
// so cron and CI wrappers see a non-zero exit.
func runOnce(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Startup failed")
		return err
	}

	rec, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(rec)
	if n := len(rec.Errors()); n > 0 {
		return fmt.Errorf("backup run %s finished with %d failure(s)", rec.ID, n)
	}
	return nil
}

// printSummary writes a one-line-per-destination report to stdout.
func printSummary(rec *backup.RunRecord) {
	fmt.Fprintf(os.Stdout, "run %s (%s)\n", rec.ID, rec.Duration().Round(time.Millisecond))
	for _, s := range rec.Sources {
		if !s.Produced() {
			fmt.Fprintf(os.Stdout, "  %-12s not produced: %v\n", s.Key, s.ProducerErr)
			continue
		}
		fmt.Fprintf(os.Stdout, "  %-12s %s\n", s.Key, s.Artifact.FileName())
		for _, o := range s.Replications {
			line := fmt.Sprintf("    %-28s %-13s pruned=%d", o.Destination, o.Status, len(o.Pruned))
			if o.Err != nil {
				line += " " + o.Err.Error()
			}
			fmt.Fprintln(os.Stdout, line)
		}
	}
	for _, s := range rec.Syncs {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		fmt.Fprintf(os.Stdout, "  sync %s: %s\n", s.Name, status)
	}
}
