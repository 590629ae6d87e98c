// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package config

import (
	"strings"
	"testing"
	"time"
)

const unsetSecretEnv = "DUMPWARDEN_TEST_UNSET_SECRET"

func loadValidConfig(t *testing.T) *Config {
	t.Helper()
	setTestSecrets(t)
	t.Setenv(unsetSecretEnv, "")
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "uppercase key",
			mutate:  func(c *Config) { c.Sources[0].Key = "BOPO" },
			wantErr: "sources.0.key must be a lowercase identifier",
		},
		{
			name:    "folder with separator",
			mutate:  func(c *Config) { c.Sources[0].Folder = "BOPO/test" },
			wantErr: "sources.0.folder must be a single directory name",
		},
		{
			name:    "duplicate key",
			mutate:  func(c *Config) { c.Sources[1].Key = "bopo" },
			wantErr: `sources.1.key "bopo" is used more than once`,
		},
		{
			name:    "duplicate folder",
			mutate:  func(c *Config) { c.Sources[1].Folder = "BOPO_test" },
			wantErr: `sources.1.folder "BOPO_test" is used more than once`,
		},
		{
			name:    "interval without period",
			mutate:  func(c *Config) { c.Schedule.Mode = ScheduleInterval; c.Schedule.Interval = 0 },
			wantErr: "schedule.interval must be positive",
		},
		{
			name:    "daily without time",
			mutate:  func(c *Config) { c.Schedule.At = "" },
			wantErr: "schedule.at is required",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Schedule.Timezone = "Mars/Olympus_Mons" },
			wantErr: "schedule.timezone is invalid",
		},
		{
			name:    "server without addr",
			mutate:  func(c *Config) { c.Server.Enabled = true; c.Server.Addr = "" },
			wantErr: "server.addr is required",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: `logging.level "loud"`,
		},
		{
			name:    "no ssh credentials",
			mutate:  func(c *Config) { c.Sources[0].SSH.PasswordEnv = "" },
			wantErr: "sources.0.ssh: one of password_env or key_file is required",
		},
		{
			name:    "ssh password env unset",
			mutate:  func(c *Config) { c.Sources[0].SSH.PasswordEnv = unsetSecretEnv },
			wantErr: "sources.0.ssh.password_env: " + unsetSecretEnv + " is not set",
		},
		{
			name:    "host key policy missing",
			mutate:  func(c *Config) { c.Sources[0].SSH.InsecureIgnoreHostKey = false },
			wantErr: "sources.0.ssh: known_hosts_file is required unless insecure_ignore_host_key=true",
		},
		{
			name:    "database password env unset",
			mutate:  func(c *Config) { c.Sources[0].Database.PasswordEnv = unsetSecretEnv },
			wantErr: "sources.0.database.password_env: " + unsetSecretEnv + " is not set",
		},
		{
			name:    "drive not enabled",
			mutate:  func(c *Config) { c.Drive.Enabled = false },
			wantErr: "sources.0.destinations.0: kind=drive requires drive.enabled=true",
		},
		{
			name:    "drive without folder",
			mutate:  func(c *Config) { c.Sources[0].Destinations[0].FolderID = "" },
			wantErr: "sources.0.destinations.0.folder_id is required",
		},
		{
			name: "s3 not enabled",
			mutate: func(c *Config) {
				c.Sources[1].Destinations = append(c.Sources[1].Destinations, DestinationConfig{Kind: KindS3, Prefix: "ext"})
			},
			wantErr: "sources.1.destinations.0: kind=s3 requires s3.enabled=true",
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
				c.S3.Bucket = ""
				c.Sources[1].Destinations = append(c.Sources[1].Destinations, DestinationConfig{Kind: KindS3, Prefix: "ext"})
			},
			wantErr: "sources.1.destinations.0: kind=s3 requires s3.bucket",
		},
		{
			name:    "repo without repository",
			mutate:  func(c *Config) { c.Repository.Path = "" },
			wantErr: "sources.0.destinations.1: kind=repo requires repository.path",
		},
		{
			name:    "repo without path",
			mutate:  func(c *Config) { c.Sources[0].Destinations[1].Path = "" },
			wantErr: "sources.0.destinations.1.path is required",
		},
		{
			name:    "repo absolute path",
			mutate:  func(c *Config) { c.Sources[0].Destinations[1].Path = "/srv/dumps" },
			wantErr: `sources.0.destinations.1.path "/srv/dumps" must stay inside the repository`,
		},
		{
			name:    "repo path escapes root",
			mutate:  func(c *Config) { c.Sources[0].Destinations[1].Path = "dumps/../../elsewhere" },
			wantErr: "must stay inside the repository",
		},
		{
			name: "repo path shared with another source",
			mutate: func(c *Config) {
				c.Sources[1].Destinations = append(c.Sources[1].Destinations, DestinationConfig{Kind: KindRepo, Path: "dumps/bopo/"})
			},
			wantErr: `sources.1.destinations.0.path "dumps/bopo/" is already used by sources.0.destinations.1`,
		},
		{
			name: "repo path equals a local archive folder",
			mutate: func(c *Config) {
				c.Repository.Path = c.Archive.Root
				c.Sources[0].Destinations[1].Path = "EXT_production"
			},
			wantErr: "is already used by the local archive of sources.1",
		},
		{
			name: "distinct repo paths",
			mutate: func(c *Config) {
				c.Sources[1].Destinations = append(c.Sources[1].Destinations, DestinationConfig{Kind: KindRepo, Path: "dumps/ext"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValidConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_IntervalMode(t *testing.T) {
	cfg := loadValidConfig(t)
	cfg.Schedule.Mode = ScheduleInterval
	cfg.Schedule.At = ""
	cfg.Schedule.Interval = 6 * time.Hour

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestUsesKind(t *testing.T) {
	cfg := loadValidConfig(t)

	tests := []struct {
		kind string
		want bool
	}{
		{KindDrive, true},
		{KindRepo, true},
		{KindS3, false},
	}
	for _, tt := range tests {
		if got := cfg.UsesKind(tt.kind); got != tt.want {
			t.Errorf("UsesKind(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
