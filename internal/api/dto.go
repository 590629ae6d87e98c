// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package api

import (
	"time"

	"github.com/tomtom215/dumpwarden/internal/backup"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	State        StateDTO   `json:"state"`
	Schedule     string     `json:"schedule,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	SkippedTicks int64      `json:"skipped_ticks"`
	Plans        []PlanDTO  `json:"plans"`
	LastRun      *RunDTO    `json:"last_run"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	// Status is "healthy", or "degraded" when the last run had failures.
	Status        string     `json:"status"`
	Version       string     `json:"version"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	Phase         string     `json:"phase"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunErrors int        `json:"last_run_errors"`
}

// StateDTO mirrors backup.State.
type StateDTO struct {
	Phase  string    `json:"phase"`
	Source string    `json:"source,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
	Since  time.Time `json:"since"`
}

// PlanDTO describes where a source's dumps go.
type PlanDTO struct {
	Source      string      `json:"source"`
	DisplayName string      `json:"display_name,omitempty"`
	LocalDir    string      `json:"local_dir"`
	Targets     []TargetDTO `json:"targets"`
}

// TargetDTO is one destination of a plan.
type TargetDTO struct {
	Destination string `json:"destination"`
	Kind        string `json:"kind"`
	Keep        int    `json:"keep"`
	TimeoutMS   int64  `json:"timeout_ms,omitempty"`
}

// RunDTO is a completed backup.RunRecord.
type RunDTO struct {
	ID         string      `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	DurationMS int64       `json:"duration_ms"`
	Partial    bool        `json:"partial"`
	Refreshes  []StepDTO   `json:"refreshes,omitempty"`
	Sources    []SourceDTO `json:"sources"`
	Syncs      []StepDTO   `json:"syncs,omitempty"`
}

// StepDTO is a refresh or sync step.
type StepDTO struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// SourceDTO is what one run did for one source.
type SourceDTO struct {
	Key          string       `json:"key"`
	Produced     bool         `json:"produced"`
	Artifact     *ArtifactDTO `json:"artifact,omitempty"`
	ProducerErr  string       `json:"producer_error,omitempty"`
	ErrorKind    string       `json:"producer_error_kind,omitempty"`
	Replications []OutcomeDTO `json:"replications,omitempty"`
}

// ArtifactDTO is a produced dump.
type ArtifactDTO struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// OutcomeDTO is one destination outcome.
type OutcomeDTO struct {
	Destination string   `json:"destination"`
	Kind        string   `json:"kind"`
	Status      string   `json:"status"`
	Pruned      []string `json:"pruned,omitempty"`
	Error       string   `json:"error,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
}

func newStateDTO(s backup.State) StateDTO {
	return StateDTO{Phase: s.Phase.String(), Source: s.Source, RunID: s.RunID, Since: s.Since}
}

func newPlanDTOs(plans []backup.Plan) []PlanDTO {
	out := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		p := &plans[i]
		dto := PlanDTO{
			Source:      p.Source.Key,
			DisplayName: p.Source.DisplayName,
			LocalDir:    p.Source.LocalDir,
			Targets:     make([]TargetDTO, 0, len(p.Targets)),
		}
		for _, t := range p.Targets {
			dto.Targets = append(dto.Targets, TargetDTO{
				Destination: t.Destination.Name(),
				Kind:        t.Destination.Kind().String(),
				Keep:        t.Keep,
				TimeoutMS:   t.Timeout.Milliseconds(),
			})
		}
		out = append(out, dto)
	}
	return out
}

// NewRunDTO converts a run record. A nil record yields nil.
func NewRunDTO(rec *backup.RunRecord) *RunDTO {
	if rec == nil {
		return nil
	}
	dto := &RunDTO{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		DurationMS: rec.Duration().Milliseconds(),
		Partial:    rec.Partial(),
		Refreshes:  newStepDTOs(rec.Refreshes),
		Sources:    make([]SourceDTO, 0, len(rec.Sources)),
		Syncs:      newStepDTOs(rec.Syncs),
	}
	for i := range rec.Sources {
		dto.Sources = append(dto.Sources, newSourceDTO(&rec.Sources[i]))
	}
	return dto
}

func newStepDTOs(steps []backup.StepResult) []StepDTO {
	if len(steps) == 0 {
		return nil
	}
	out := make([]StepDTO, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepDTO{
			Name:       s.Name,
			OK:         s.Err == nil,
			Error:      errString(s.Err),
			DurationMS: s.Duration.Milliseconds(),
		})
	}
	return out
}

func newSourceDTO(s *backup.SourceRecord) SourceDTO {
	dto := SourceDTO{Key: s.Key, Produced: s.Produced()}
	if s.Artifact != nil {
		dto.Artifact = &ArtifactDTO{
			Name:      s.Artifact.FileName(),
			CreatedAt: s.Artifact.CreatedAt,
			SizeBytes: s.Artifact.SizeBytes,
		}
	}
	if s.ProducerErr != nil {
		dto.ProducerErr = s.ProducerErr.Error()
		if kind := backup.ProducerErrorKindOf(s.ProducerErr); kind != 0 {
			dto.ErrorKind = kind.String()
		}
	}
	for _, o := range s.Replications {
		dto.Replications = append(dto.Replications, OutcomeDTO{
			Destination: o.Destination,
			Kind:        o.Kind.String(),
			Status:      o.Status.String(),
			Pruned:      o.Pruned,
			Error:       errString(o.Err),
			DurationMS:  o.Duration.Milliseconds(),
		})
	}
	return dto
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
