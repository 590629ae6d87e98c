// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package backup

import (
	"context"
	"path/filepath"
	"time"
)

// Source describes one database whose dumps are retained.
// It is immutable once a plan is built.
type Source struct {
	// Key identifies the source in object names, logs and metrics.
	Key string `json:"key"`

	// DisplayName is a human label; Key is used when empty.
	DisplayName string `json:"display_name,omitempty"`

	// LocalDir is the archive folder the producer writes into.
	LocalDir string `json:"local_dir"`
}

// Artifact is one dump file produced for a source.
// Remote copies are independent of the local file once stored.
type Artifact struct {
	SourceKey string    `json:"source_key"`
	CreatedAt time.Time `json:"created_at"`
	LocalPath string    `json:"local_path"`
	SizeBytes int64     `json:"size_bytes"`
}

// FileName returns the base name of the local file.
func (a Artifact) FileName() string {
	return filepath.Base(a.LocalPath)
}

// ArtifactRef identifies an artifact as seen by a destination's List.
type ArtifactRef struct {
	// ID is the handle Prune needs: a path for file destinations, an object id for stores.
	ID string `json:"id"`

	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	SizeBytes  int64     `json:"size_bytes"`
}

// Kind is the closed set of destination variants.
type Kind int

const (
	// KindLocal is the source's local archive folder.
	KindLocal Kind = iota

	// KindRemote is a folder in a remote object store.
	KindRemote

	// KindRepo is a folder inside a version-controlled working tree.
	KindRepo
)

// String returns the lowercase kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	case KindRepo:
		return "repo"
	default:
		return "unknown"
	}
}

// Destination is a storage tier holding copies of a source's artifacts.
type Destination interface {
	// Name is a stable label such as "local:BOPO_test" or "drive:1AbC".
	Name() string
	Kind() Kind

	// Store places a copy of the artifact. On return the copy is visible to List.
	Store(ctx context.Context, a Artifact) error

	// List returns the source's artifacts at this destination, newest first.
	List(ctx context.Context, sourceKey string) ([]ArtifactRef, error)

	// Prune deletes each ref independently and joins the failures.
	Prune(ctx context.Context, refs []ArtifactRef) error
}

// Producer creates a fresh artifact for a source.
type Producer interface {
	Produce(ctx context.Context, src Source) (Artifact, error)
}

// Syncer publishes batched changes once per run (e.g. commit and push a repository).
type Syncer interface {
	Name() string
	Sync(ctx context.Context) error
}

// Refresher renews a long-lived session before each run.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// Target binds a destination to the retention limit and call timeout used for one source.
type Target struct {
	Destination Destination
	Keep        int
	Timeout     time.Duration
}

// Plan is a source together with the ordered targets its artifacts fan out to.
type Plan struct {
	Source  Source
	Targets []Target
}
