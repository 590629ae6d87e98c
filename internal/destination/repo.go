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
	"time"

	"github.com/tomtom215/dumpwarden/internal/backup"
)

// Repo is a folder inside a version-controlled working tree. Changes are
// published by the repository's syncer once per run.
type Repo struct {
	root string
	dir  string
	ext  string
	now  func() time.Time
}

// NewRepo returns the destination for the relative path dir inside the
// working tree root.
func NewRepo(root, dir, ext string) *Repo {
	return &Repo{root: root, dir: filepath.Clean(dir), ext: ext, now: time.Now}
}

// Name implements backup.Destination.
func (r *Repo) Name() string { return "repo:" + filepath.ToSlash(r.dir) }

// Kind implements backup.Destination.
func (r *Repo) Kind() backup.Kind { return backup.KindRepo }

func (r *Repo) path() string { return filepath.Join(r.root, r.dir) }

// Store copies the artifact into the folder under a fresh name.
func (r *Repo) Store(ctx context.Context, a backup.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := r.path()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}
	return copyFile(a.LocalPath, filepath.Join(dir, RepoName(a.SourceKey, a.LocalPath, r.now())))
}

// List returns sourceKey's copies in the folder, newest first. Files of
// other sources and files not written by Store are ignored.
func (r *Repo) List(ctx context.Context, sourceKey string) ([]backup.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := listDir(r.path(), r.ext)
	if err != nil {
		return nil, err
	}
	refs := all[:0]
	for _, ref := range all {
		if IsRepoName(sourceKey, ref.Name) {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// Prune implements backup.Destination.
func (r *Repo) Prune(_ context.Context, refs []backup.ArtifactRef) error {
	return removeRefs(refs)
}
