// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package backup

import (
	"time"
)

// StepResult is the result of a refresh or sync step.
type StepResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// SourceRecord is everything a run did for one source.
type SourceRecord struct {
	Key string

	// Artifact is nil when production failed.
	Artifact *Artifact

	// ProducerErr is a *ProducerError (or a context error) when Artifact is nil.
	ProducerErr error

	// Replications is index-aligned with the plan's targets.
	Replications []Outcome
}

// Produced reports whether an artifact was created.
func (s SourceRecord) Produced() bool {
	return s.Artifact != nil
}

// StoredCount returns how many destinations hold the artifact.
func (s SourceRecord) StoredCount() int {
	n := 0
	for i := range s.Replications {
		if s.Replications[i].IsStored() {
			n++
		}
	}
	return n
}

// RunRecord summarizes one backup run. It is not modified after Run returns.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Refreshes []StepResult
	Sources   []SourceRecord
	Syncs     []StepResult
}

// Duration returns FinishedAt - StartedAt.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Source returns the record for key.
func (r *RunRecord) Source(key string) (SourceRecord, bool) {
	for i := range r.Sources {
		if r.Sources[i].Key == key {
			return r.Sources[i], true
		}
	}
	return SourceRecord{}, false
}

// Errors returns every error captured in the run, in the order it happened.
func (r *RunRecord) Errors() []error {
	var errs []error
	for i := range r.Refreshes {
		if r.Refreshes[i].Err != nil {
			errs = append(errs, r.Refreshes[i].Err)
		}
	}
	for i := range r.Sources {
		if r.Sources[i].ProducerErr != nil {
			errs = append(errs, r.Sources[i].ProducerErr)
		}
		for j := range r.Sources[i].Replications {
			if err := r.Sources[i].Replications[j].Err; err != nil {
				errs = append(errs, err)
			}
		}
	}
	for i := range r.Syncs {
		if r.Syncs[i].Err != nil {
			errs = append(errs, r.Syncs[i].Err)
		}
	}
	return errs
}

// Partial reports whether anything in the run failed.
func (r *RunRecord) Partial() bool {
	return len(r.Errors()) > 0
}
