// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
coordinator.go - Artifact Fan-Out

The coordinator copies one artifact to every target of a plan and enforces
each target's keep-last-N limit right after the copy lands.

Per target:
  1. Store the artifact (bounded by the target timeout)
  2. List the source's artifacts at the destination, newest first
  3. Prune everything past the keep limit (SelectForDeletion)

A failed Store yields StoreFailed and skips list/prune for that target.
A failed List or Prune yields PruneFailed; the artifact still counts as
stored. No failure stops the remaining targets and nothing is returned as
an error: outcomes are data.

Local archive targets are always handled after every other target, so a
retention pass on the local folder can never remove the file that remote
stores are still reading.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/metrics"
)

// OutcomeStatus is the result of replicating one artifact to one destination.
type OutcomeStatus int

const (
	// Stored means the artifact is at the destination and retention succeeded.
	Stored OutcomeStatus = iota

	// StoreFailed means the artifact did not reach the destination.
	StoreFailed

	// PruneFailed means the artifact was stored but retention could not finish.
	PruneFailed
)

// String returns the snake_case status used in logs and metrics.
func (s OutcomeStatus) String() string {
	switch s {
	case Stored:
		return "stored"
	case StoreFailed:
		return "store_failed"
	case PruneFailed:
		return "prune_failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened at one destination.
type Outcome struct {
	Destination string
	Kind        Kind
	Status      OutcomeStatus

	// Pruned lists the names deleted by retention.
	Pruned []string

	// Err is a *StoreError or *PruneError, nil when Status is Stored.
	Err error

	Duration time.Duration
}

// IsStored reports whether the artifact reached the destination.
func (o Outcome) IsStored() bool {
	return o.Status != StoreFailed
}

// Coordinator replicates artifacts to targets.
type Coordinator struct {
	parallelism    int
	defaultTimeout time.Duration
}

// NewCoordinator creates a coordinator serving up to parallelism non-local
// targets at once. defaultTimeout applies to targets without their own timeout.
func NewCoordinator(parallelism int, defaultTimeout time.Duration) *Coordinator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Coordinator{parallelism: parallelism, defaultTimeout: defaultTimeout}
}

// Replicate stores a to every target and enforces retention. The returned
// outcomes are index-aligned with targets.
func (c *Coordinator) Replicate(ctx context.Context, a Artifact, targets []Target) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var local []int
	g := new(errgroup.Group)
	g.SetLimit(c.parallelism)
	for i := range targets {
		if targets[i].Destination.Kind() == KindLocal {
			local = append(local, i)
			continue
		}
		g.Go(func() error {
			outcomes[i] = c.replicateOne(ctx, a, targets[i])
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	for _, i := range local {
		outcomes[i] = c.replicateOne(ctx, a, targets[i])
	}
	return outcomes
}

func (c *Coordinator) replicateOne(ctx context.Context, a Artifact, t Target) Outcome {
	dest := t.Destination
	start := time.Now()
	out := Outcome{Destination: dest.Name(), Kind: dest.Kind()}
	log := logging.Ctx(ctx).With().
		Str("source", a.SourceKey).
		Str("destination", out.Destination).
		Str("kind", out.Kind.String()).
		Logger()

	finish := func() Outcome {
		out.Duration = time.Since(start)
		metrics.RecordReplication(a.SourceKey, out.Kind.String(), out.Status.String(), len(out.Pruned))
		return out
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	if _, err := bounded(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, dest.Store(ctx, a)
	}); err != nil {
		out.Status = StoreFailed
		out.Err = &StoreError{Destination: out.Destination, Err: err}
		log.Error().Err(err).Str("outcome", out.Status.String()).Msg("Store failed")
		return finish()
	}

	refs, err := bounded(ctx, timeout, func(ctx context.Context) ([]ArtifactRef, error) {
		return dest.List(ctx, a.SourceKey)
	})
	if err != nil {
		out.Status = PruneFailed
		out.Err = &PruneError{Destination: out.Destination, Err: fmt.Errorf("list: %w", err)}
		log.Warn().Err(err).Str("outcome", out.Status.String()).Msg("Listing for retention failed")
		return finish()
	}

	victims := SelectForDeletion(refs, t.Keep)
	if len(victims) > 0 {
		if _, err := bounded(ctx, timeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, dest.Prune(ctx, victims)
		}); err != nil {
			out.Status = PruneFailed
			out.Err = &PruneError{Destination: out.Destination, Err: err}
			log.Warn().Err(err).
				Strs("selected", refNames(victims)).
				Str("outcome", out.Status.String()).
				Msg("Retention prune failed")
			return finish()
		}
		out.Pruned = refNames(victims)
	}

	out.Status = Stored
	log.Info().
		Str("artifact", a.FileName()).
		Int("existing", len(refs)).
		Int("keep", t.Keep).
		Int("pruned", len(out.Pruned)).
		Str("outcome", out.Status.String()).
		Msg("Artifact replicated")
	return finish()
}

// bounded runs fn with a deadline of timeout and returns as soon as either
// fn finishes or the deadline passes, even if fn ignores its context.
// A zero timeout only propagates ctx.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-callCtx.Done():
		var zero T
		return zero, fmt.Errorf("timed out after %s: %w", timeout, callCtx.Err())
	}
}
