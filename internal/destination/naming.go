// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package destination

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const stampLayout = "20060102T150405Z"

// shortID returns 8 random hex characters.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// RemoteName returns the object name for an artifact of sourceKey created at t.
func RemoteName(sourceKey string, t time.Time, ext string) string {
	return sourceKey + "_" + t.UTC().Format(stampLayout) + "-" + shortID() + ext
}

// RemotePrefix returns the name prefix shared by every remote object of sourceKey.
func RemotePrefix(sourceKey string) string {
	return sourceKey + "_"
}

// IsRemoteName reports whether name was produced by RemoteName for sourceKey.
// The prefix alone is ambiguous: "bopo_" also matches objects of "bopo_test".
func IsRemoteName(sourceKey, name string) bool {
	return hasKeyStamp(sourceKey, name)
}

// RepoName returns the file name of a repo copy of localPath made at t for
// sourceKey. The key comes first so sources can share a folder.
func RepoName(sourceKey, localPath string, t time.Time) string {
	return sourceKey + "_" + t.UTC().Format(stampLayout) + "-" + shortID() + "_" + filepath.Base(localPath)
}

// IsRepoName reports whether name was produced by RepoName for sourceKey.
func IsRepoName(sourceKey, name string) bool {
	return hasKeyStamp(sourceKey, name)
}

// hasKeyStamp reports whether name is "<sourceKey>_<stamp>..." with a valid stamp.
// Keys are lowercase, so another key can never parse as a stamp.
func hasKeyStamp(sourceKey, name string) bool {
	rest, ok := strings.CutPrefix(name, RemotePrefix(sourceKey))
	if !ok || len(rest) < len(stampLayout) {
		return false
	}
	_, err := time.Parse(stampLayout, rest[:len(stampLayout)])
	return err == nil
}
