// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/session"
)

// runAuth runs the browser consent flow once and writes the token file the
// daemon refreshes from then on.
func runAuth(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	oauthCfg, err := session.LoadOAuthConfig(cfg.Drive.CredentialsFile)
	if err != nil {
		return err
	}

	tok, err := session.Authorize(ctx, oauthCfg, cfg.Drive.AuthListenAddr, func(url string) {
		fmt.Fprintf(os.Stderr, "Open this URL in a browser to authorize Google Drive access:\n\n  %s\n\n", url)
	})
	if err != nil {
		return fmt.Errorf("authorize drive: %w", err)
	}

	if err := session.SaveToken(cfg.Drive.TokenFile, tok); err != nil {
		return err
	}
	logging.Info().Str("token_file", cfg.Drive.TokenFile).Msg("Drive token saved")
	return nil
}
