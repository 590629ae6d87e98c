// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package destination

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/objectstore"
)

// Remote is a folder in an object store.
type Remote struct {
	store  objectstore.Store
	folder string
}

// NewRemote returns the destination for folder in store.
func NewRemote(store objectstore.Store, folder string) *Remote {
	return &Remote{store: store, folder: folder}
}

// Name implements backup.Destination.
func (r *Remote) Name() string { return r.store.Name() + ":" + r.folder }

// Kind implements backup.Destination.
func (r *Remote) Kind() backup.Kind { return backup.KindRemote }

// Store uploads the artifact under a unique name.
func (r *Remote) Store(ctx context.Context, a backup.Artifact) error {
	f, err := os.Open(a.LocalPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	size := a.SizeBytes
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	name := RemoteName(a.SourceKey, a.CreatedAt, filepath.Ext(a.LocalPath))
	if _, err := r.store.Upload(ctx, r.folder, name, f, size); err != nil {
		return err
	}
	return nil
}

// List implements backup.Destination.
func (r *Remote) List(ctx context.Context, sourceKey string) ([]backup.ArtifactRef, error) {
	objs, err := r.store.List(ctx, r.folder, RemotePrefix(sourceKey))
	if err != nil {
		return nil, err
	}
	refs := make([]backup.ArtifactRef, 0, len(objs))
	for _, o := range objs {
		if !IsRemoteName(sourceKey, o.Name) {
			continue
		}
		refs = append(refs, backup.ArtifactRef{ID: o.ID, Name: o.Name, ModifiedAt: o.ModifiedAt, SizeBytes: o.Size})
	}
	backup.SortNewestFirst(refs)
	return refs, nil
}

// Prune implements backup.Destination.
func (r *Remote) Prune(ctx context.Context, refs []backup.ArtifactRef) error {
	var errs []error
	for _, ref := range refs {
		if err := r.store.Delete(ctx, ref.ID); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", ref.Name, err))
		}
	}
	return errors.Join(errs...)
}
