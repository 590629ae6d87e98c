// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package objectstore abstracts the cloud folders that remote destinations
// write to.
//
// A Store knows nothing about sources or retention. It uploads a named blob
// into a folder, lists a folder by name prefix, and deletes by ID. Backends:
//
//	gdrive   - Google Drive; folder is a Drive folder ID, ID is the file ID
//	s3store  - S3 or any S3-compatible service; folder is a key prefix, ID is the key
//
// Every backend is wrapped in Guarded, which adds a token-bucket rate limit,
// a circuit breaker and request metrics.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Delete when the object no longer exists.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob as reported by a backend.
type Object struct {
	ID         string
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// Store is a flat, folder-scoped blob store.
type Store interface {
	// Name identifies the backend in logs and metrics ("drive", "s3").
	Name() string

	// Upload writes body as name inside folder and returns the new object.
	Upload(ctx context.Context, folder, name string, body io.Reader, size int64) (Object, error)

	// List returns the objects in folder whose names start with prefix, in no
	// particular order.
	List(ctx context.Context, folder, prefix string) ([]Object, error)

	// Delete removes the object with the given ID.
	Delete(ctx context.Context, id string) error
}
