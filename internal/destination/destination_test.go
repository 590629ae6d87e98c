// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package destination

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/objectstore"
	"github.com/tomtom215/dumpwarden/internal/objectstore/objectstoretest"
)

var baseTime = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

// writeDump creates dir/name with content and mtime baseTime - age.
func writeDump(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("-- dump "+name), 0o600); err != nil {
		t.Fatal(err)
	}
	ts := baseTime.Add(-age)
	if err := os.Chtimes(p, ts, ts); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRemoteName(t *testing.T) {
	re := regexp.MustCompile(`^bopo_20260301T020000Z-[0-9a-f]{8}\.sql$`)
	a := RemoteName("bopo", baseTime, ".sql")
	b := RemoteName("bopo", baseTime, ".sql")
	if !re.MatchString(a) {
		t.Errorf("RemoteName() = %q, does not match %s", a, re)
	}
	if a == b {
		t.Errorf("RemoteName() returned %q twice for the same timestamp", a)
	}
	if !strings.HasPrefix(a, RemotePrefix("bopo")) {
		t.Errorf("RemoteName() = %q lacks prefix %q", a, RemotePrefix("bopo"))
	}
}

func TestIsRemoteName(t *testing.T) {
	tests := []struct {
		key  string
		name string
		want bool
	}{
		{"bopo", RemoteName("bopo", baseTime, ".sql"), true},
		{"bopo", "bopo_20260301T020000Z-0123abcd.sql.gz", true},
		{"bopo", RemoteName("bopo_test", baseTime, ".sql"), false},
		{"bopo_test", RemoteName("bopo", baseTime, ".sql"), false},
		{"bopo", "bopo_notes.txt", false},
		{"bopo", "bopo_", false},
		{"bopo", "ext_20260301T020000Z-0123abcd.sql", false},
	}
	for _, tt := range tests {
		if got := IsRemoteName(tt.key, tt.name); got != tt.want {
			t.Errorf("IsRemoteName(%q, %q) = %v, want %v", tt.key, tt.name, got, tt.want)
		}
	}
}

func TestRepoName(t *testing.T) {
	re := regexp.MustCompile(`^bopo_20260301T020000Z-[0-9a-f]{8}_dump_20260301_020000\.sql$`)
	got := RepoName("bopo", "/backups/BOPO_test/dump_20260301_020000.sql", baseTime)
	if !re.MatchString(got) {
		t.Errorf("RepoName() = %q, does not match %s", got, re)
	}
	if !IsRepoName("bopo", got) {
		t.Errorf("IsRepoName(bopo, %q) = false, want true", got)
	}
	for _, key := range []string{"bopo_test", "ext_test", "bop"} {
		if IsRepoName(key, got) {
			t.Errorf("IsRepoName(%q, %q) = true, want false", key, got)
		}
	}
}

func TestLocal_ListFiltersAndOrders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "BOPO_test")
	writeDump(t, dir, "dump_b.sql", 2*time.Hour)
	writeDump(t, dir, "dump_a.sql", time.Hour)
	writeDump(t, dir, "notes.txt", 0)
	writeDump(t, dir, "dump_tie_1.sql", 3*time.Hour)
	writeDump(t, dir, "dump_tie_2.sql", 3*time.Hour)
	if err := os.Mkdir(filepath.Join(dir, "sub.sql"), 0o750); err != nil {
		t.Fatal(err)
	}

	l := NewLocal(dir, ".sql")
	if l.Name() != "local:BOPO_test" || l.Kind() != backup.KindLocal {
		t.Errorf("Name/Kind = %s/%v", l.Name(), l.Kind())
	}

	refs, err := l.List(context.Background(), "bopo")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"dump_a.sql", "dump_b.sql", "dump_tie_2.sql", "dump_tie_1.sql"}
	if len(refs) != len(want) {
		t.Fatalf("List() = %v, want %v", names(refs), want)
	}
	for i := range want {
		if refs[i].Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, refs[i].Name, want[i])
		}
	}
}

func TestLocal_ListMissingDir(t *testing.T) {
	refs, err := NewLocal(filepath.Join(t.TempDir(), "nope"), ".sql").List(context.Background(), "x")
	if err != nil || len(refs) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", refs, err)
	}
}

func TestLocal_StoreInPlaceAndCopy(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "EXT_test")
	l := NewLocal(dir, ".sql")

	inPlace := writeDump(t, dir, "dump_1.sql", 0)
	if err := l.Store(context.Background(), backup.Artifact{LocalPath: inPlace}); err != nil {
		t.Fatalf("Store(in place) error = %v", err)
	}

	elsewhere := writeDump(t, filepath.Join(root, "staging"), "dump_2.sql", 0)
	if err := l.Store(context.Background(), backup.Artifact{LocalPath: elsewhere}); err != nil {
		t.Fatalf("Store(copy) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "dump_2.sql")); err != nil {
		t.Errorf("copied artifact missing: %v", err)
	}

	missing := filepath.Join(dir, "dump_missing.sql")
	if err := l.Store(context.Background(), backup.Artifact{LocalPath: missing}); err == nil {
		t.Error("Store(missing) error = nil, want error")
	}
}

func TestLocal_Prune(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, ".sql")
	for i, name := range []string{"dump_1.sql", "dump_2.sql", "dump_3.sql"} {
		writeDump(t, dir, name, time.Duration(i)*time.Hour)
	}

	refs, _ := l.List(context.Background(), "")
	victims := backup.SelectForDeletion(refs, 1)
	// A ref that is already gone is not an error.
	victims = append(victims, backup.ArtifactRef{ID: filepath.Join(dir, "gone.sql"), Name: "gone.sql"})

	if err := l.Prune(context.Background(), victims); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	left, _ := l.List(context.Background(), "")
	if len(left) != 1 || left[0].Name != "dump_1.sql" {
		t.Errorf("after prune = %v, want [dump_1.sql]", names(left))
	}
}

func TestRemote_StoreListPrune(t *testing.T) {
	mem := objectstoretest.NewMemory()
	mem.Epoch = baseTime
	for i := 1; i <= 3; i++ {
		mem.Put("folder-bopo", RemoteName("bopo", baseTime, ".sql"), baseTime.Add(-time.Duration(i)*24*time.Hour))
	}
	mem.Put("folder-bopo", "ext_test_20260101T000000Z-aaaaaaaa.sql", baseTime)
	mem.Put("folder-bopo", "bopo_test_20260101T000000Z-bbbbbbbb.sql", baseTime)
	mem.Put("other-folder", RemoteName("bopo", baseTime, ".sql"), baseTime)

	r := NewRemote(mem, "folder-bopo")
	if r.Name() != "memory:folder-bopo" || r.Kind() != backup.KindRemote {
		t.Errorf("Name/Kind = %s/%v", r.Name(), r.Kind())
	}

	dump := writeDump(t, t.TempDir(), "dump_20260301_020000.sql", 0)
	err := r.Store(context.Background(), backup.Artifact{SourceKey: "bopo", CreatedAt: baseTime, LocalPath: dump})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	refs, err := r.List(context.Background(), "bopo")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("List() = %v, want 4 bopo objects", names(refs))
	}
	// Uploads are stamped after the epoch; seeded objects are older.
	for i := 1; i < len(refs); i++ {
		if refs[i].ModifiedAt.After(refs[i-1].ModifiedAt) {
			t.Errorf("List() not newest first at %d", i)
		}
	}
	data, ok := mem.Data("folder-bopo", refs[0].Name)
	if !ok || !strings.Contains(string(data), "dump_20260301_020000.sql") {
		t.Errorf("uploaded content = %q", data)
	}

	if err := r.Prune(context.Background(), backup.SelectForDeletion(refs, 2)); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if got := len(mem.Names("folder-bopo")); got != 4 {
		t.Errorf("objects left = %d, want 2 bopo + ext_test + bopo_test", got)
	}
}

func TestRemote_PruneToleratesMissingAndJoinsErrors(t *testing.T) {
	mem := objectstoretest.NewMemory()
	r := NewRemote(mem, "f")

	if err := r.Prune(context.Background(), []backup.ArtifactRef{{ID: "nope", Name: "nope"}}); err != nil {
		t.Errorf("Prune(missing) error = %v, want nil", err)
	}

	mem.DeleteErr = errors.New("403 insufficient permissions")
	err := r.Prune(context.Background(), []backup.ArtifactRef{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}})
	if err == nil {
		t.Fatal("Prune() error = nil, want joined error")
	}
	if !strings.Contains(err.Error(), "delete a") || !strings.Contains(err.Error(), "delete b") {
		t.Errorf("Prune() error = %q, want both refs", err)
	}
}

func TestRemote_StoreErrors(t *testing.T) {
	mem := objectstoretest.NewMemory()
	r := NewRemote(mem, "f")

	if err := r.Store(context.Background(), backup.Artifact{LocalPath: "/does/not/exist.sql"}); err == nil {
		t.Error("Store(missing file) error = nil")
	}

	mem.UploadErr = objectstore.ErrNotFound
	dump := writeDump(t, t.TempDir(), "dump.sql", 0)
	if err := r.Store(context.Background(), backup.Artifact{SourceKey: "k", LocalPath: dump}); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Store() error = %v, want upload error", err)
	}
}

func TestRepo_StoreListPrune(t *testing.T) {
	root := t.TempDir()
	r := NewRepo(root, "dumps/kavya", ".sql")
	clock := baseTime
	r.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	if r.Name() != "repo:dumps/kavya" || r.Kind() != backup.KindRepo {
		t.Errorf("Name/Kind = %s/%v", r.Name(), r.Kind())
	}

	src := writeDump(t, t.TempDir(), "dump_20260301_020000.sql", 0)
	for i := 0; i < 3; i++ {
		if err := r.Store(context.Background(), backup.Artifact{SourceKey: "kavya", LocalPath: src}); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}

	refs, err := r.List(context.Background(), "kavya")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("List() = %v, want 3 copies", names(refs))
	}
	for _, ref := range refs {
		if !strings.HasPrefix(ref.Name, "kavya_") || !strings.HasSuffix(ref.Name, "_dump_20260301_020000.sql") {
			t.Errorf("copy name = %s", ref.Name)
		}
	}

	if err := r.Prune(context.Background(), backup.SelectForDeletion(refs, 1)); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	left, _ := r.List(context.Background(), "kavya")
	if len(left) != 1 {
		t.Errorf("after prune = %v, want 1", names(left))
	}
}

func TestRepo_SharedFolderKeepsSourcesApart(t *testing.T) {
	root := t.TempDir()
	clock := baseTime
	tick := func() time.Time { clock = clock.Add(time.Second); return clock }

	bopo := NewRepo(root, "dumps", ".sql")
	bopo.now = tick
	ext := NewRepo(root, "dumps", ".sql")
	ext.now = tick

	// A stray file without a key prefix is never listed or pruned.
	stray := writeDump(t, filepath.Join(root, "dumps"), "manual_export.sql", time.Hour)

	replicate := func(r *Repo, key string, keep int) {
		t.Helper()
		src := writeDump(t, t.TempDir(), "dump_20260301_020000.sql", 0)
		if err := r.Store(context.Background(), backup.Artifact{SourceKey: key, LocalPath: src}); err != nil {
			t.Fatalf("Store(%s) error = %v", key, err)
		}
		refs, err := r.List(context.Background(), key)
		if err != nil {
			t.Fatalf("List(%s) error = %v", key, err)
		}
		if err := r.Prune(context.Background(), backup.SelectForDeletion(refs, keep)); err != nil {
			t.Fatalf("Prune(%s) error = %v", key, err)
		}
	}

	for i := 0; i < 3; i++ {
		replicate(bopo, "bopo", 3)
	}
	replicate(ext, "ext_test", 3)
	replicate(ext, "ext_test", 1)

	tests := []struct {
		key  string
		want int
	}{
		{"bopo", 3},
		{"ext_test", 1},
		{"ext", 0},
	}
	for _, tt := range tests {
		refs, err := bopo.List(context.Background(), tt.key)
		if err != nil {
			t.Fatalf("List(%s) error = %v", tt.key, err)
		}
		if len(refs) != tt.want {
			t.Errorf("List(%s) = %v, want %d", tt.key, names(refs), tt.want)
		}
	}
	if _, err := os.Stat(stray); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func names(refs []backup.ArtifactRef) []string {
	out := make([]string, len(refs))
	for i := range refs {
		out[i] = refs[i].Name
	}
	return out
}
