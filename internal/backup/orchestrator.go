// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
orchestrator.go - Backup Run

A run walks every plan in order:

	Idle -> Refreshing -> Producing(src) -> Replicating(src) -> ... -> RepoSync -> Idle

Refreshers (cloud sessions) are renewed once at the start. Sources are
processed sequentially, so there is never more than one producer call per
source. A source whose producer fails is recorded and skipped; the next
source still runs. After the last source every syncer runs exactly once.

Run never aborts early and always returns to Idle. All failures end up in
the RunRecord and the log; the only error Run itself returns is
ErrRunInProgress.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/metrics"
)

// Phase is the orchestrator's current step.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRefreshing
	PhaseProducing
	PhaseReplicating
	PhaseRepoSync
)

// String returns the snake_case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseProducing:
		return "producing"
	case PhaseReplicating:
		return "replicating"
	case PhaseRepoSync:
		return "repo_sync"
	default:
		return "unknown"
	}
}

// State is a snapshot of what the orchestrator is doing.
type State struct {
	Phase Phase

	// Source is set during Producing and Replicating.
	Source string

	// RunID is empty while idle.
	RunID string

	Since time.Time
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Producer    Producer
	Coordinator *Coordinator
	Plans       []Plan
	Syncers     []Syncer
	Refreshers  []Refresher

	// ProduceTimeout bounds each producer call. Zero means unbounded.
	ProduceTimeout time.Duration

	// SyncTimeout bounds each syncer call. Zero means unbounded.
	SyncTimeout time.Duration

	// Now overrides the clock; tests use it.
	Now func() time.Time
}

// Orchestrator runs backups. It is safe for concurrent use; overlapping
// Run calls are rejected rather than queued.
type Orchestrator struct {
	producer       Producer
	coordinator    *Coordinator
	plans          []Plan
	syncers        []Syncer
	refreshers     []Refresher
	produceTimeout time.Duration
	syncTimeout    time.Duration
	now            func() time.Time

	running atomic.Bool

	mu    sync.RWMutex
	state State
	last  *RunRecord
}

// NewOrchestrator validates cfg and returns an idle orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Producer == nil {
		return nil, errors.New("orchestrator: producer is required")
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = NewCoordinator(1, 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	for i := range cfg.Plans {
		if cfg.Plans[i].Source.Key == "" {
			return nil, errors.New("orchestrator: plan with empty source key")
		}
	}

	o := &Orchestrator{
		producer:       cfg.Producer,
		coordinator:    cfg.Coordinator,
		plans:          cfg.Plans,
		syncers:        dedupeSyncers(cfg.Syncers),
		refreshers:     cfg.Refreshers,
		produceTimeout: cfg.ProduceTimeout,
		syncTimeout:    cfg.SyncTimeout,
		now:            cfg.Now,
	}
	o.state = State{Phase: PhaseIdle, Since: o.now()}
	return o, nil
}

// dedupeSyncers keeps the first syncer of each name, so a repository shared
// by several destinations is synced once.
func dedupeSyncers(in []Syncer) []Syncer {
	seen := make(map[string]bool, len(in))
	out := make([]Syncer, 0, len(in))
	for _, s := range in {
		if s == nil || seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		out = append(out, s)
	}
	return out
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastRun returns the most recent completed run, or nil.
func (o *Orchestrator) LastRun() *RunRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// Plans returns the configured plans.
func (o *Orchestrator) Plans() []Plan {
	return o.plans
}

func (o *Orchestrator) setState(phase Phase, runID, source string) {
	o.mu.Lock()
	o.state = State{Phase: phase, Source: source, RunID: runID, Since: o.now()}
	o.mu.Unlock()
}

// Run performs one complete backup run and returns its record.
func (o *Orchestrator) Run(ctx context.Context) (*RunRecord, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	rec := &RunRecord{ID: logging.GenerateRunID(), StartedAt: o.now()}
	ctx = logging.ContextWithRunID(ctx, rec.ID)
	log := logging.Ctx(ctx)

	metrics.SetRunInProgress(true)
	defer func() {
		metrics.SetRunInProgress(false)
		o.setState(PhaseIdle, "", "")
	}()

	log.Info().Int("sources", len(o.plans)).Int("syncers", len(o.syncers)).Msg("Backup run started")

	if len(o.refreshers) > 0 {
		o.setState(PhaseRefreshing, rec.ID, "")
		rec.Refreshes = o.refresh(ctx)
	}

	rec.Sources = make([]SourceRecord, 0, len(o.plans))
	for i := range o.plans {
		rec.Sources = append(rec.Sources, o.runPlan(ctx, rec.ID, &o.plans[i]))
	}

	if len(o.syncers) > 0 {
		o.setState(PhaseRepoSync, rec.ID, "")
		rec.Syncs = o.sync(ctx)
	}

	rec.FinishedAt = o.now()
	partial := rec.Partial()
	metrics.RecordRun(rec.Duration(), rec.FinishedAt, partial)

	event := log.Info()
	if partial {
		event = log.Warn()
	}
	event.
		Dur("duration", rec.Duration()).
		Int("failures", len(rec.Errors())).
		Bool("partial", partial).
		Msg("Backup run finished")

	o.mu.Lock()
	o.last = rec
	o.mu.Unlock()

	return rec, nil
}

func (o *Orchestrator) refresh(ctx context.Context) []StepResult {
	results := make([]StepResult, 0, len(o.refreshers))
	for _, r := range o.refreshers {
		start := o.now()
		err := r.Refresh(ctx)
		metrics.RecordSessionRefresh(r.Name(), err)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("session", r.Name()).Msg("Session refresh failed")
		}
		results = append(results, StepResult{Name: r.Name(), Err: err, Duration: o.now().Sub(start)})
	}
	return results
}

func (o *Orchestrator) runPlan(ctx context.Context, runID string, p *Plan) SourceRecord {
	src := p.Source
	sr := SourceRecord{Key: src.Key}
	log := logging.Ctx(ctx).With().Str("source", src.Key).Logger()

	o.setState(PhaseProducing, runID, src.Key)
	start := o.now()
	artifact, err := bounded(ctx, o.produceTimeout, func(ctx context.Context) (Artifact, error) {
		return o.producer.Produce(ctx, src)
	})
	elapsed := o.now().Sub(start)
	if err != nil {
		sr.ProducerErr = err
		result := "error"
		if kind := ProducerErrorKindOf(err); kind != 0 {
			result = kind.String()
		}
		metrics.RecordProducer(src.Key, result, elapsed, 0)
		log.Error().Err(err).Str("result", result).Msg("Dump production failed, skipping source")
		return sr
	}

	metrics.RecordProducer(src.Key, "ok", elapsed, artifact.SizeBytes)
	log.Info().
		Str("artifact", artifact.FileName()).
		Int64("size_bytes", artifact.SizeBytes).
		Dur("duration", elapsed).
		Msg("Dump produced")
	sr.Artifact = &artifact

	o.setState(PhaseReplicating, runID, src.Key)
	sr.Replications = o.coordinator.Replicate(ctx, artifact, p.Targets)

	log.Info().
		Int("destinations", len(p.Targets)).
		Int("stored", sr.StoredCount()).
		Msg("Source replicated")
	return sr
}

func (o *Orchestrator) sync(ctx context.Context) []StepResult {
	results := make([]StepResult, 0, len(o.syncers))
	for _, s := range o.syncers {
		start := o.now()
		_, err := bounded(ctx, o.syncTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.Sync(ctx)
		})
		metrics.RecordRepoSync(err)
		if err != nil {
			var se *SyncError
			if !errors.As(err, &se) {
				err = &SyncError{Syncer: s.Name(), Err: err}
			}
			logging.Ctx(ctx).Error().Err(err).Str("syncer", s.Name()).Msg("Repository sync failed")
		} else {
			logging.Ctx(ctx).Info().Str("syncer", s.Name()).Msg("Repository synced")
		}
		results = append(results, StepResult{Name: s.Name(), Err: err, Duration: o.now().Sub(start)})
	}
	return results
}
