// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
scheduler.go - Single-Flight Run Scheduler

The scheduler fires the backup job according to a Schedule:

  - A timer is armed for the next due time; on expiry the job starts in its
    own goroutine and the timer is re-armed from the current time.
  - Only one job runs at a time. A tick arriving while the previous run is
    still active is skipped (logged and counted), never queued, so a stuck
    run cannot build up a backlog.
  - RunOnStart fires one run immediately after Start.

Start/Stop follow the lifecycle the supervisor wraps: Start returns at once,
Stop cancels the in-flight job's context and waits for it to return.
*/

//nolint:staticcheck // File documentation, not package doc
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/metrics"
)

// Job is one scheduled unit of work, typically a full backup run.
type Job func(ctx context.Context) error

// ErrAlreadyStarted is returned by Start when the loop is running.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Options configures a Scheduler.
type Options struct {
	RunOnStart bool

	// Now overrides the clock used to compute due times.
	Now func() time.Time
}

// Scheduler runs a Job on a Schedule with single-flight semantics.
type Scheduler struct {
	schedule   Schedule
	job        Job
	runOnStart bool
	nowFn      func() time.Time

	running atomic.Bool
	skipped atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	loopWg  sync.WaitGroup
	jobWg   sync.WaitGroup
	nextRun time.Time
	lastRun time.Time
	lastErr error
}

// New creates a stopped scheduler.
func New(schedule Schedule, job Job, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		schedule:   schedule,
		job:        job,
		runOnStart: opts.RunOnStart,
		nowFn:      opts.Now,
	}
}

// Start arms the timer and returns. The loop ends when ctx is canceled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.nextRun = s.schedule.Next(s.nowFn())

	logging.Info().
		Str("schedule", s.schedule.String()).
		Time("next_run", s.nextRun).
		Bool("run_on_start", s.runOnStart).
		Msg("Backup scheduler started")

	s.loopWg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop ends the loop, cancels a running job and waits for it.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	s.loopWg.Wait()
	s.jobWg.Wait()
	logging.Info().Msg("Backup scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.loopWg.Done()

	if s.runOnStart {
		s.fire(ctx)
	}

	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.fire(ctx)
			s.mu.Lock()
			s.nextRun = s.schedule.Next(s.nowFn())
			s.mu.Unlock()
			timer.Reset(s.untilNext())
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.nextRun.Sub(s.nowFn())
	if d < 0 {
		d = 0
	}
	return d
}

// fire starts the job unless one is still running.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		metrics.RecordSkippedTick()
		logging.Warn().Msg("Previous backup run still active, skipping scheduled tick")
		return
	}

	s.jobWg.Add(1)
	go func() {
		defer s.jobWg.Done()
		defer s.running.Store(false)

		started := s.nowFn()
		err := s.job(ctx)

		s.mu.Lock()
		s.lastRun = started
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			logging.Error().Err(err).Msg("Scheduled backup run failed")
		}
	}()
}

// NextRun returns when the next run is due. It is zero before Start.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

// LastRun returns when the last finished run started and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// Running reports whether a job is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Skipped returns how many ticks were dropped because a run was active.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Schedule returns the configured schedule.
func (s *Scheduler) Schedule() Schedule { return s.schedule }
