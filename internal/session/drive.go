// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/tomtom215/dumpwarden/internal/logging"
)

// refreshMargin forces a refresh when the access token expires this soon, so
// a run never starts with a token that dies halfway through an upload.
const refreshMargin = 5 * time.Minute

// Drive is the long-lived OAuth session used by the Drive object store.
// Every new token is written back to the token file.
type Drive struct {
	cfg       *oauth2.Config
	tokenFile string
	now       func() time.Time

	mu  sync.Mutex
	tok *oauth2.Token
}

// LoadOAuthConfig reads an OAuth client secret JSON file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

// OpenDrive loads the saved token for cfg. It returns ErrNoToken when the
// user has not authorized yet.
func OpenDrive(cfg *oauth2.Config, tokenFile string) (*Drive, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return &Drive{cfg: cfg, tokenFile: tokenFile, now: time.Now, tok: tok}, nil
}

// Name implements backup.Refresher.
func (d *Drive) Name() string { return "drive" }

// Refresh renews the access token if it is expired or about to expire and
// saves the result.
func (d *Drive) Refresh(ctx context.Context) error {
	_, err := d.token(ctx, refreshMargin)
	return err
}

// Ready reports whether the session can obtain tokens without user interaction.
func (d *Drive) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tok != nil && (d.tok.RefreshToken != "" || d.valid(0))
}

// TokenSource returns a source for API clients. Tokens it refreshes are
// persisted like those from Refresh.
func (d *Drive) TokenSource() oauth2.TokenSource {
	return driveTokenSource{d: d}
}

type driveTokenSource struct{ d *Drive }

func (s driveTokenSource) Token() (*oauth2.Token, error) {
	return s.d.token(context.Background(), 0)
}

func (d *Drive) valid(margin time.Duration) bool {
	if d.tok.AccessToken == "" {
		return false
	}
	if d.tok.Expiry.IsZero() {
		return true
	}
	return d.now().Add(margin).Before(d.tok.Expiry)
}

func (d *Drive) token(ctx context.Context, margin time.Duration) (*oauth2.Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.valid(margin) {
		return d.tok, nil
	}
	if d.tok.RefreshToken == "" {
		return nil, fmt.Errorf("drive token expired and has no refresh token; run \"dumpwarden auth\"")
	}

	// Without an access token oauth2 always refreshes, even inside the margin.
	fresh, err := d.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: d.tok.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh drive token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = d.tok.RefreshToken
	}
	d.tok = fresh

	if err := SaveToken(d.tokenFile, fresh); err != nil {
		// The in-memory token still works for this process.
		logging.Warn().Err(err).Str("token_file", d.tokenFile).Msg("Could not persist refreshed Drive token")
	}
	logging.Info().Time("expiry", fresh.Expiry).Msg("Drive token refreshed")
	return fresh, nil
}
