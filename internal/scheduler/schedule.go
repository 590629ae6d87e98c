// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package scheduler starts backup runs on a daily or fixed-interval schedule.
package scheduler

import (
	"fmt"
	"time"

	"github.com/tomtom215/dumpwarden/internal/config"
)

// Schedule decides when the next run is due.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time
	String() string
}

type interval struct {
	every time.Duration
}

// Interval returns a schedule firing every d.
func Interval(d time.Duration) (Schedule, error) {
	if d <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", d)
	}
	return interval{every: d}, nil
}

func (s interval) Next(t time.Time) time.Time { return t.Add(s.every) }

func (s interval) String() string { return "every " + s.every.String() }

type daily struct {
	hour, minute int
	loc          *time.Location
}

// DailyAt returns a schedule firing once a day at clock ("HH:MM") in loc.
// A nil loc means time.Local.
func DailyAt(clock string, loc *time.Location) (Schedule, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, fmt.Errorf("invalid time of day %q: want HH:MM", clock)
	}
	if loc == nil {
		loc = time.Local
	}
	return daily{hour: t.Hour(), minute: t.Minute(), loc: loc}, nil
}

func (s daily) Next(t time.Time) time.Time {
	local := t.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(t) {
		// time.Date normalizes the day overflow and keeps the wall clock across DST changes.
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

func (s daily) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", s.hour, s.minute, s.loc)
}

// FromConfig builds the schedule selected by cfg.Mode.
func FromConfig(cfg config.ScheduleConfig) (Schedule, error) {
	switch cfg.Mode {
	case config.ScheduleInterval:
		return Interval(cfg.Interval)
	case config.ScheduleDaily, "":
		loc, err := cfg.Location()
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		return DailyAt(cfg.At, loc)
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", cfg.Mode)
	}
}
