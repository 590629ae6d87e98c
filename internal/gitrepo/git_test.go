// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package gitrepo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/config"
)

// gitFixture is a working tree with a bare remote next to it.
type gitFixture struct {
	work   string
	remote string
}

func newGitFixture(t *testing.T) gitFixture {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	// Isolate from the user's git configuration (signing, hooks, templates).
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	root := t.TempDir()
	f := gitFixture{
		work:   filepath.Join(root, "work"),
		remote: filepath.Join(root, "remote.git"),
	}
	mustGit(t, root, "init", "--quiet", "--bare", f.remote)
	mustGit(t, root, "init", "--quiet", f.work)
	return f
}

func mustGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func (f gitFixture) open(t *testing.T, remote string) *Repo {
	t.Helper()
	r, err := Open(config.RepositoryConfig{
		Path:          f.work,
		Remote:        remote,
		Branch:        "main",
		CommitMessage: "Update database dumps",
		AuthorName:    "Dumpwarden",
		AuthorEmail:   "dumpwarden@example.com",
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	r.now = func() time.Time { return time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC) }
	return r
}

func (f gitFixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.work, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func (f gitFixture) remoteCommits(t *testing.T) []string {
	t.Helper()
	out := mustGit(t, f.remote, "log", "--format=%s", "main")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestSync_CommitsAndPushes(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, f.remote)
	f.write(t, "bopo/20260301T020000Z-0a1b2c3d_dump_20260301_020000.sql", "-- dump")

	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	commits := f.remoteCommits(t)
	if len(commits) != 1 {
		t.Fatalf("remote has %d commits, want 1", len(commits))
	}
	if commits[0] != "Update database dumps (2026-03-01T02:00:00Z)" {
		t.Errorf("commit message = %q", commits[0])
	}
	files := mustGit(t, f.remote, "ls-tree", "-r", "--name-only", "main")
	if !strings.Contains(files, "bopo/20260301T020000Z-0a1b2c3d_dump_20260301_020000.sql") {
		t.Errorf("pushed tree = %q", files)
	}
	author := mustGit(t, f.remote, "log", "-1", "--format=%an <%ae>", "main")
	if author != "Dumpwarden <dumpwarden@example.com>" {
		t.Errorf("author = %q", author)
	}
}

func TestSync_NothingToCommit(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, f.remote)
	f.write(t, "bopo/a.sql", "a")

	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if n := len(f.remoteCommits(t)); n != 1 {
		t.Errorf("remote has %d commits, want 1", n)
	}
}

func TestSync_RecordsDeletions(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, f.remote)
	f.write(t, "bopo/old.sql", "old")
	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if err := os.Remove(filepath.Join(f.work, "bopo/old.sql")); err != nil {
		t.Fatal(err)
	}
	f.write(t, "bopo/new.sql", "new")
	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	files := mustGit(t, f.remote, "ls-tree", "-r", "--name-only", "main")
	if strings.Contains(files, "old.sql") || !strings.Contains(files, "new.sql") {
		t.Errorf("pushed tree = %q, want only new.sql", files)
	}
}

func TestSync_PushFailure(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, filepath.Join(t.TempDir(), "does-not-exist.git"))
	f.write(t, "bopo/a.sql", "a")

	err := r.Sync(context.Background())

	var se *backup.SyncError
	if !errors.As(err, &se) {
		t.Fatalf("Sync() error = %v, want *backup.SyncError", err)
	}
	if se.Syncer != r.Name() {
		t.Errorf("Syncer = %s, want %s", se.Syncer, r.Name())
	}
	if !strings.Contains(err.Error(), "push") {
		t.Errorf("error = %v, want the push step", err)
	}

	// The commit is kept locally and goes out with the next successful push.
	if msg := mustGit(t, f.work, "log", "-1", "--format=%s"); !strings.HasPrefix(msg, "Update database dumps") {
		t.Errorf("local HEAD = %q", msg)
	}
}

func TestSync_LocalOnly(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, "")
	f.write(t, "kavya/a.sql", "a")

	if err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n := len(f.remoteCommits(t)); n != 0 {
		t.Errorf("remote has %d commits, want 0", n)
	}
	if got := mustGit(t, f.work, "rev-list", "--count", "HEAD"); got != "1" {
		t.Errorf("local commits = %s, want 1", got)
	}
}

func TestSync_Cancelled(t *testing.T) {
	f := newGitFixture(t)
	r := f.open(t, f.remote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sync() error = %v, want context.Canceled", err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(config.RepositoryConfig{}); err == nil {
		t.Error("Open() with empty path succeeded")
	}
	if _, err := Open(config.RepositoryConfig{Path: t.TempDir()}); err == nil {
		t.Error("Open() on a plain directory succeeded")
	}
}

func TestRepo_Name(t *testing.T) {
	r := &Repo{path: "/srv/dumps"}
	if got := r.Name(); got != "repo:/srv/dumps" {
		t.Errorf("Name() = %s", got)
	}
}
