// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package destination

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/dumpwarden/internal/backup"
)

// Local is a source's archive folder.
type Local struct {
	dir string
	ext string
}

// NewLocal returns the archive folder dir holding files ending in ext.
func NewLocal(dir, ext string) *Local {
	return &Local{dir: filepath.Clean(dir), ext: ext}
}

// Name implements backup.Destination.
func (l *Local) Name() string { return "local:" + filepath.Base(l.dir) }

// Kind implements backup.Destination.
func (l *Local) Kind() backup.Kind { return backup.KindLocal }

// Dir returns the archive folder.
func (l *Local) Dir() string { return l.dir }

// Store makes sure the artifact is in the archive folder. Artifacts the
// producer wrote there already are left in place.
func (l *Local) Store(ctx context.Context, a backup.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filepath.Dir(filepath.Clean(a.LocalPath)) == l.dir {
		if _, err := os.Stat(a.LocalPath); err != nil {
			return fmt.Errorf("artifact missing from archive: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	return copyFile(a.LocalPath, filepath.Join(l.dir, a.FileName()))
}

// List implements backup.Destination. The folder belongs to one source, so
// sourceKey is not used for filtering.
func (l *Local) List(ctx context.Context, _ string) ([]backup.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listDir(l.dir, l.ext)
}

// Prune implements backup.Destination.
func (l *Local) Prune(_ context.Context, refs []backup.ArtifactRef) error {
	return removeRefs(refs)
}
