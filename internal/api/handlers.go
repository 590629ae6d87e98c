// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package api

import (
	"net/http"
	"time"
)

// Health reports liveness. It always answers 200 while the process runs;
// Status is "degraded" when the last run had failures.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Phase:         h.runs.State().Phase.String(),
	}
	if last := h.runs.LastRun(); last != nil {
		finished := last.FinishedAt
		resp.LastRunAt = &finished
		resp.LastRunErrors = len(last.Errors())
		if resp.LastRunErrors > 0 {
			resp.Status = "degraded"
		}
	}
	respondSuccess(w, resp)
}

// Status returns the orchestrator state, the schedule and the last run.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		State:    newStateDTO(h.runs.State()),
		Schedule: h.description,
		Plans:    newPlanDTOs(h.runs.Plans()),
		LastRun:  NewRunDTO(h.runs.LastRun()),
	}
	if h.schedule != nil {
		if next := h.schedule.NextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
		resp.SkippedTicks = h.schedule.Skipped()
	}
	respondSuccess(w, resp)
}
