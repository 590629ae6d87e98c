// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	t.Parallel()

	a := GenerateRunID()
	b := GenerateRunID()

	if len(a) != 8 {
		t.Errorf("len(GenerateRunID()) = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("GenerateRunID() returned %q twice", a)
	}
}

func TestRunIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RunIDFromContext(ctx); got != "" {
		t.Errorf("RunIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithRunID(ctx, "abcd1234")
	if got := RunIDFromContext(ctx); got != "abcd1234" {
		t.Errorf("RunIDFromContext() = %q, want %q", got, "abcd1234")
	}
}

func TestCtx(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRunID(ctx, "run00001")

	Ctx(ctx).Info().Str("source", "ext_test").Msg("replicated")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run00001"`) {
		t.Errorf("output missing run_id: %s", out)
	}
	if !strings.Contains(out, `"source":"ext_test"`) {
		t.Errorf("output missing source: %s", out)
	}
}

func TestCtx_NoRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))

	Ctx(ctx).Info().Msg("idle")

	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("output should not contain run_id: %s", buf.String())
	}
}
