// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package objectstore_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/objectstore"
	"github.com/tomtom215/dumpwarden/internal/objectstore/objectstoretest"
)

func testGuardConfig() objectstore.GuardConfig {
	return objectstore.GuardConfig{
		Breaker: config.BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
	}
}

func TestGuarded_PassesThrough(t *testing.T) {
	mem := objectstoretest.NewMemory()
	g := objectstore.NewGuarded(mem, testGuardConfig())
	ctx := context.Background()

	if g.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", g.Name())
	}

	obj, err := g.Upload(ctx, "folder", "bopo_1.sql", strings.NewReader("dump"), 4)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if obj.Size != 4 || obj.Name != "bopo_1.sql" {
		t.Errorf("Upload() = %+v", obj)
	}

	objs, err := g.List(ctx, "folder", "bopo_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objs) != 1 || objs[0].ID != obj.ID {
		t.Errorf("List() = %+v, want the uploaded object", objs)
	}

	if err := g.Delete(ctx, obj.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := g.Delete(ctx, obj.ID); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGuarded_OpensAfterFailures(t *testing.T) {
	mem := objectstoretest.NewMemory()
	mem.ListErr = errors.New("503 service unavailable")
	g := objectstore.NewGuarded(mem, testGuardConfig())

	if g.State() != "closed" {
		t.Fatalf("initial State() = %s, want closed", g.State())
	}

	for i := 0; i < 12; i++ {
		_, _ = g.List(context.Background(), "f", "")
	}

	if g.State() != "open" {
		t.Fatalf("State() = %s, want open after repeated failures", g.State())
	}

	mem.ListErr = nil
	if _, err := g.List(context.Background(), "f", ""); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("List() with open circuit error = %v, want ErrOpenState", err)
	}
}

func TestGuarded_StaysClosedBelowMinimum(t *testing.T) {
	mem := objectstoretest.NewMemory()
	mem.UploadErr = errors.New("boom")
	g := objectstore.NewGuarded(mem, testGuardConfig())

	for i := 0; i < 9; i++ {
		_, _ = g.Upload(context.Background(), "f", "x", strings.NewReader(""), 0)
	}
	if g.State() != "closed" {
		t.Errorf("State() = %s, want closed below the minimum request count", g.State())
	}
}

func TestGuarded_NotFoundDoesNotTrip(t *testing.T) {
	g := objectstore.NewGuarded(objectstoretest.NewMemory(), testGuardConfig())

	for i := 0; i < 20; i++ {
		if err := g.Delete(context.Background(), "missing"); !errors.Is(err, objectstore.ErrNotFound) {
			t.Fatalf("Delete() error = %v, want ErrNotFound", err)
		}
	}
	if g.State() != "closed" {
		t.Errorf("State() = %s, want closed", g.State())
	}
}

func TestGuarded_RateLimitHonoursContext(t *testing.T) {
	cfg := testGuardConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	g := objectstore.NewGuarded(objectstoretest.NewMemory(), cfg)

	if _, err := g.List(context.Background(), "f", ""); err != nil {
		t.Fatalf("first List() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.List(ctx, "f", "")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("throttled List() error = %v, want rate limit error", err)
	}
}
