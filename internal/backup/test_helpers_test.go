// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testEpoch is the fixed clock used by fakes.
var testEpoch = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

// memDestination is an in-memory Destination with injectable failures.
type memDestination struct {
	name string
	kind Kind

	mu    sync.Mutex
	items []ArtifactRef
	seq   int

	storeErr error
	listErr  error
	// pruneFail makes Prune fail for these ref IDs only.
	pruneFail map[string]bool
	// block makes Store wait on this channel, ignoring ctx.
	block chan struct{}
	// journal receives "<name>:<op>" for each call.
	journal *callJournal

	storeCalls int
	listCalls  int
	pruneCalls int
}

func newMemDestination(name string, kind Kind) *memDestination {
	return &memDestination{name: name, kind: kind, pruneFail: map[string]bool{}}
}

func (d *memDestination) Name() string { return d.name }
func (d *memDestination) Kind() Kind   { return d.kind }

func (d *memDestination) Store(_ context.Context, a Artifact) error {
	d.journal.add(d.name + ":store")
	if d.block != nil {
		<-d.block
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.storeCalls++
	if d.storeErr != nil {
		return d.storeErr
	}
	d.seq++
	d.items = append(d.items, ArtifactRef{
		ID:         fmt.Sprintf("%s/new-%d", d.name, d.seq),
		Name:       a.FileName(),
		ModifiedAt: a.CreatedAt,
		SizeBytes:  a.SizeBytes,
	})
	return nil
}

func (d *memDestination) List(_ context.Context, _ string) ([]ArtifactRef, error) {
	d.journal.add(d.name + ":list")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listCalls++
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]ArtifactRef, len(d.items))
	copy(out, d.items)
	SortNewestFirst(out)
	return out, nil
}

func (d *memDestination) Prune(_ context.Context, refs []ArtifactRef) error {
	d.journal.add(d.name + ":prune")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneCalls++

	var errs []error
	for _, ref := range refs {
		if d.pruneFail[ref.ID] {
			errs = append(errs, fmt.Errorf("delete %s: permission denied", ref.Name))
			continue
		}
		for i := range d.items {
			if d.items[i].ID == ref.ID {
				d.items = append(d.items[:i], d.items[i+1:]...)
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (d *memDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (d *memDestination) has(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, it := range d.items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// seed adds n artifacts, one hour apart, all older than testEpoch.
func (d *memDestination) seed(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 1; i <= n; i++ {
		ts := testEpoch.Add(-time.Duration(i) * time.Hour)
		d.items = append(d.items, ArtifactRef{
			ID:         fmt.Sprintf("%s/old-%02d", d.name, i),
			Name:       "dump_" + ts.Format("20060102_150405") + ".sql",
			ModifiedAt: ts,
		})
	}
}

// callJournal records call order across destinations. A nil journal ignores calls.
type callJournal struct {
	mu    sync.Mutex
	calls []string
}

func (j *callJournal) add(s string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.calls = append(j.calls, s)
	j.mu.Unlock()
}

func (j *callJournal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

// fakeProducer returns an artifact per source unless an error is configured.
type fakeProducer struct {
	mu      sync.Mutex
	errs    map[string]error
	calls   map[string]int
	active  int
	maxSeen int
	// during runs inside Produce, e.g. to observe orchestrator state.
	during func(src Source)
	// block makes Produce wait on this channel.
	block chan struct{}
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{errs: map[string]error{}, calls: map[string]int{}}
}

func (p *fakeProducer) Produce(_ context.Context, src Source) (Artifact, error) {
	p.mu.Lock()
	p.calls[src.Key]++
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	err := p.errs[src.Key]
	during := p.during
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if during != nil {
		during(src)
	}
	if p.block != nil {
		<-p.block
	}
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		SourceKey: src.Key,
		CreatedAt: testEpoch,
		LocalPath: src.LocalDir + "/dump_20260301_020000.sql",
		SizeBytes: 1024,
	}, nil
}

// fakeSyncer counts Sync calls.
type fakeSyncer struct {
	name  string
	err   error
	mu    sync.Mutex
	calls int
}

func (s *fakeSyncer) Name() string { return s.name }

func (s *fakeSyncer) Sync(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type fakeRefresher struct {
	name  string
	err   error
	calls int
}

func (r *fakeRefresher) Name() string { return r.name }

func (r *fakeRefresher) Refresh(context.Context) error {
	r.calls++
	return r.err
}

func newTestOrchestrator(t *testing.T, cfg OrchestratorConfig) *Orchestrator {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testEpoch }
	}
	o, err := NewOrchestrator(cfg)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	return o
}
