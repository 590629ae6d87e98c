// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/metrics"
)

// GuardConfig tunes the protection around a backend.
type GuardConfig struct {
	// RequestsPerSecond caps calls to the backend. Zero disables the limit.
	RequestsPerSecond float64
	Burst             int

	Breaker config.BreakerConfig
}

// Guarded wraps a Store with rate limiting and a circuit breaker.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout; tests drive it by request counts, not by the clock.
type Guarded struct {
	store   Store
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	name    string
}

// NewGuarded wraps store. The breaker opens once at least MinRequests calls
// were seen in the interval and the failure ratio reaches FailureRatio.
func NewGuarded(store Store, cfg GuardConfig) *Guarded {
	cbName := "objectstore-" + store.Name()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	bc := cfg.Breaker
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= bc.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("store", store.Name()).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		// A missing object or a cancelled run says nothing about backend health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})

	return &Guarded{
		store:   store,
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		name:    cbName,
	}
}

// Name returns the wrapped backend's name.
func (g *Guarded) Name() string { return g.store.Name() }

// State returns the breaker state as "closed", "half-open" or "open".
func (g *Guarded) State() string { return stateToString(g.cb.State()) }

func (g *Guarded) execute(ctx context.Context, op string, fn func() (any, error)) (any, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: rate limit: %w", g.store.Name(), op, err)
	}

	start := time.Now()
	result, err := g.cb.Execute(fn)
	metrics.RecordObjectStoreRequest(g.store.Name(), op, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "rejected").Inc()
			logging.Warn().Err(err).Str("store", g.store.Name()).Str("operation", op).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(g.name).Set(float64(g.cb.Counts().ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(g.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Upload implements Store.
func (g *Guarded) Upload(ctx context.Context, folder, name string, body io.Reader, size int64) (Object, error) {
	return castResult[Object](g.execute(ctx, "upload", func() (any, error) {
		return g.store.Upload(ctx, folder, name, body, size)
	}))
}

// List implements Store.
func (g *Guarded) List(ctx context.Context, folder, prefix string) ([]Object, error) {
	return castResult[[]Object](g.execute(ctx, "list", func() (any, error) {
		return g.store.List(ctx, folder, prefix)
	}))
}

// Delete implements Store.
func (g *Guarded) Delete(ctx context.Context, id string) error {
	_, err := g.execute(ctx, "delete", func() (any, error) {
		return nil, g.store.Delete(ctx, id)
	})
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
