// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package gdrive implements objectstore.Store on Google Drive.
//
// Folders are Drive folder IDs. Uploaded files are plain binary blobs;
// Drive's own conversion is never requested. Shared drives are supported.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tomtom215/dumpwarden/internal/objectstore"
)

const fileFields = "id, name, size, createdTime, modifiedTime"

// Store is a Drive-backed objectstore.Store.
type Store struct {
	svc *drive.Service
}

// New creates a Drive client. Callers pass the auth option, typically
// option.WithTokenSource from the OAuth session.
func New(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Store{svc: svc}, nil
}

// Name implements objectstore.Store.
func (s *Store) Name() string { return "drive" }

// Upload implements objectstore.Store.
func (s *Store) Upload(ctx context.Context, folder, name string, body io.Reader, _ int64) (objectstore.Object, error) {
	f, err := s.svc.Files.Create(&drive.File{Name: name, Parents: []string{folder}}).
		Media(body, googleapi.ContentType("application/octet-stream")).
		SupportsAllDrives(true).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("drive upload %s: %w", name, err)
	}
	return toObject(f), nil
}

// List implements objectstore.Store. Drive's "contains" operator matches
// word prefixes, so results are filtered again on the exact name prefix.
func (s *Store) List(ctx context.Context, folder, prefix string) ([]objectstore.Object, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folder))
	if prefix != "" {
		q += fmt.Sprintf(" and name contains '%s'", escapeQuery(prefix))
	}

	var out []objectstore.Object
	err := s.svc.Files.List().
		Q(q).
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
		PageSize(1000).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if strings.HasPrefix(f.Name, prefix) {
					out = append(out, toObject(f))
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("drive list %s: %w", folder, err)
	}
	return out, nil
}

// Delete implements objectstore.Store. The file is removed permanently,
// not moved to the trash.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.svc.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("drive delete %s: %w", id, objectstore.ErrNotFound)
		}
		return fmt.Errorf("drive delete %s: %w", id, err)
	}
	return nil
}

// toObject reports modifiedTime as the recency signal, matching S3
// LastModified and local mtimes. Uploads are never rewritten, so it equals
// the upload time unless someone edited the file in Drive.
func toObject(f *drive.File) objectstore.Object {
	ts := f.ModifiedTime
	if ts == "" {
		ts = f.CreatedTime
	}
	modified, _ := time.Parse(time.RFC3339, ts) //nolint:errcheck // zero time sorts oldest
	return objectstore.Object{ID: f.Id, Name: f.Name, Size: f.Size, ModifiedAt: modified}
}

// escapeQuery escapes a literal for the Drive query language.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
