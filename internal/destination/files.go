// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package destination

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/dumpwarden/internal/backup"
)

// listDir returns the regular files in dir ending in ext, newest first.
// A missing directory is an empty listing.
func listDir(dir, ext string) ([]backup.ArtifactRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	refs := make([]backup.ArtifactRef, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		refs = append(refs, backup.ArtifactRef{
			ID:         filepath.Join(dir, e.Name()),
			Name:       e.Name(),
			ModifiedAt: info.ModTime(),
			SizeBytes:  info.Size(),
		})
	}
	backup.SortNewestFirst(refs)
	return refs, nil
}

// removeRefs deletes each ref's path. Missing files are not errors.
func removeRefs(refs []backup.ArtifactRef) error {
	var errs []error
	for _, ref := range refs {
		if err := os.Remove(ref.ID); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", ref.Name, err))
		}
	}
	return errors.Join(errs...)
}

// copyFile copies src to dst through a temporary file in dst's directory,
// so dst is either absent or complete.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-"+filepath.Base(dst)+"-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
