// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package main

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/destination"
	"github.com/tomtom215/dumpwarden/internal/gitrepo"
	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/objectstore"
	"github.com/tomtom215/dumpwarden/internal/objectstore/gdrive"
	"github.com/tomtom215/dumpwarden/internal/objectstore/s3store"
	"github.com/tomtom215/dumpwarden/internal/producer"
	"github.com/tomtom215/dumpwarden/internal/session"
)

// backends are the shared clients destinations are built on.
type backends struct {
	drive objectstore.Store
	s3    objectstore.Store
	repo  *gitrepo.Repo

	refreshers []backup.Refresher
	syncers    []backup.Syncer
}

// buildOrchestrator wires every configured component. Any error here is a
// startup failure and must stop the process.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*backup.Orchestrator, error) {
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}

	plans, err := buildPlans(cfg, b)
	if err != nil {
		return nil, err
	}

	jobs := make(map[string]producer.Job, len(cfg.Sources))
	for i := range cfg.Sources {
		jobs[cfg.Sources[i].Key] = producer.JobFromConfig(&cfg.Sources[i])
	}

	return backup.NewOrchestrator(backup.OrchestratorConfig{
		Producer:    producer.New(nil, jobs, cfg.Archive.Extension),
		Coordinator: backup.NewCoordinator(cfg.Replication.Parallelism, cfg.Replication.Timeout),
		Plans:       plans,
		Syncers:     b.syncers,
		Refreshers:  b.refreshers,
		SyncTimeout: cfg.Repository.Timeout,
	})
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	if cfg.UsesKind(config.KindDrive) {
		sess, err := openDriveSession(ctx, cfg.Drive)
		if err != nil {
			return nil, err
		}
		store, err := gdrive.New(ctx, option.WithTokenSource(sess.TokenSource()))
		if err != nil {
			return nil, fmt.Errorf("create drive client: %w", err)
		}
		b.drive = objectstore.NewGuarded(store, objectstore.GuardConfig{
			RequestsPerSecond: cfg.Drive.RequestsPerSecond,
			Burst:             cfg.Drive.Burst,
			Breaker:           cfg.Drive.Breaker,
		})
		b.refreshers = append(b.refreshers, sess)
	}

	if cfg.UsesKind(config.KindS3) {
		store, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		b.s3 = objectstore.NewGuarded(store, objectstore.GuardConfig{
			RequestsPerSecond: cfg.S3.RequestsPerSecond,
			Burst:             cfg.S3.Burst,
			Breaker:           cfg.S3.Breaker,
		})
	}

	if cfg.UsesKind(config.KindRepo) {
		repo, err := gitrepo.Open(cfg.Repository)
		if err != nil {
			return nil, fmt.Errorf("open repository: %w", err)
		}
		b.repo = repo
		b.syncers = append(b.syncers, repo)
	}

	return b, nil
}

// openDriveSession loads the Drive token and proves it can be refreshed.
func openDriveSession(ctx context.Context, cfg config.DriveConfig) (*session.Drive, error) {
	oauthCfg, err := session.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("drive authentication: %w", err)
	}
	sess, err := session.OpenDrive(oauthCfg, cfg.TokenFile)
	if errors.Is(err, session.ErrNoToken) {
		return nil, fmt.Errorf("drive authentication: no token in %s, run \"dumpwarden auth\" first", cfg.TokenFile)
	}
	if err != nil {
		return nil, fmt.Errorf("drive authentication: %w", err)
	}
	if !sess.Ready() {
		return nil, fmt.Errorf("drive authentication: token in %s has expired and has no refresh token, run \"dumpwarden auth\" again", cfg.TokenFile)
	}
	if err := sess.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("drive authentication: %w", err)
	}
	logging.Info().Str("token_file", cfg.TokenFile).Msg("Drive session ready")
	return sess, nil
}

// buildPlans maps each source to its targets: configured destinations in
// order, then the local archive.
func buildPlans(cfg *config.Config, b *backends) ([]backup.Plan, error) {
	plans := make([]backup.Plan, 0, len(cfg.Sources))
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		localDir := src.LocalDir(cfg.Archive.Root)

		plan := backup.Plan{
			Source: backup.Source{
				Key:         src.Key,
				DisplayName: src.DisplayName,
				LocalDir:    localDir,
			},
		}

		for j := range src.Destinations {
			d := &src.Destinations[j]
			dest, err := newDestination(cfg, b, d)
			if err != nil {
				return nil, fmt.Errorf("sources[%d].destinations[%d]: %w", i, j, err)
			}
			plan.Targets = append(plan.Targets, backup.Target{
				Destination: dest,
				Keep:        d.KeepOr(cfg.Retention.Keep),
				Timeout:     d.TimeoutOr(cfg.Replication.Timeout),
			})
		}

		plan.Targets = append(plan.Targets, backup.Target{
			Destination: destination.NewLocal(localDir, cfg.Archive.Extension),
			Keep:        src.LocalKeep(cfg.Retention.Keep),
		})

		logging.Info().
			Str("source", src.Key).
			Str("local_dir", localDir).
			Int("destinations", len(plan.Targets)).
			Msg("Source configured")
		plans = append(plans, plan)
	}
	return plans, nil
}

func newDestination(cfg *config.Config, b *backends, d *config.DestinationConfig) (backup.Destination, error) {
	switch d.Kind {
	case config.KindDrive:
		return destination.NewRemote(b.drive, d.FolderID), nil
	case config.KindS3:
		return destination.NewRemote(b.s3, d.Prefix), nil
	case config.KindRepo:
		return destination.NewRepo(b.repo.Path(), d.Path, cfg.Archive.Extension), nil
	default:
		return nil, fmt.Errorf("unknown destination kind %q", d.Kind)
	}
}
