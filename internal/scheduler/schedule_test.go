// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package scheduler

import (
	"testing"
	"time"

	"github.com/tomtom215/dumpwarden/internal/config"
)

func TestDailyAt_Next(t *testing.T) {
	s, err := DailyAt("02:00", time.UTC)
	if err != nil {
		t.Fatalf("DailyAt() error = %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's slot",
			now:  time.Date(2026, 3, 1, 1, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot moves to tomorrow",
			now:  time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "after today's slot",
			now:  time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
			want: time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Next(tt.now); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestDailyAt_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	s, err := DailyAt("02:00", loc)
	if err != nil {
		t.Fatal(err)
	}

	// 2026-03-01 19:00 UTC is 2026-03-02 00:30 IST.
	got := s.Next(time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC))
	want := time.Date(2026, 3, 2, 2, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}
}

func TestDailyAt_DSTKeepsWallClock(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	s, err := DailyAt("03:30", loc)
	if err != nil {
		t.Fatal(err)
	}

	// Clocks go forward on 2026-03-29; the run the day after is still at 03:30 local.
	got := s.Next(time.Date(2026, 3, 29, 12, 0, 0, 0, loc))
	if h, m := got.In(loc).Hour(), got.In(loc).Minute(); h != 3 || m != 30 {
		t.Errorf("Next() = %v, want 03:30 local", got.In(loc))
	}
}

func TestDailyAt_Invalid(t *testing.T) {
	for _, clock := range []string{"", "2am", "24:00", "02:60", "2:00:00"} {
		if _, err := DailyAt(clock, time.UTC); err == nil {
			t.Errorf("DailyAt(%q) succeeded, want error", clock)
		}
	}
}

func TestInterval(t *testing.T) {
	s, err := Interval(90 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(now.Add(90 * time.Minute)) {
		t.Errorf("Next() = %v", got)
	}
	if s.String() != "every 1h30m0s" {
		t.Errorf("String() = %s", s.String())
	}

	if _, err := Interval(0); err == nil {
		t.Error("Interval(0) succeeded, want error")
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ScheduleConfig
		want    string
		wantErr bool
	}{
		{name: "daily", cfg: config.ScheduleConfig{Mode: "daily", At: "02:00", Timezone: "UTC"}, want: "daily at 02:00 UTC"},
		{name: "interval", cfg: config.ScheduleConfig{Mode: "interval", Interval: 6 * time.Hour}, want: "every 6h0m0s"},
		{name: "bad timezone", cfg: config.ScheduleConfig{Mode: "daily", At: "02:00", Timezone: "Mars/Olympus"}, wantErr: true},
		{name: "bad mode", cfg: config.ScheduleConfig{Mode: "cron"}, wantErr: true},
		{name: "zero interval", cfg: config.ScheduleConfig{Mode: "interval"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.String() != tt.want {
				t.Errorf("String() = %s, want %s", s.String(), tt.want)
			}
		})
	}
}
