// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/dumpwarden/internal/logging"
	"github.com/tomtom215/dumpwarden/internal/validation"
)

// Validate checks field rules first, then the cross-field rules that struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	return c.validateSources()
}

func (c *Config) validateSchedule() error {
	switch c.Schedule.Mode {
	case ScheduleDaily:
		if c.Schedule.At == "" {
			return fmt.Errorf("schedule.at is required when schedule.mode=daily")
		}
	case ScheduleInterval:
		if c.Schedule.Interval <= 0 {
			return fmt.Errorf("schedule.interval must be positive when schedule.mode=interval")
		}
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("schedule.timezone is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when server.enabled=true")
	}
	return nil
}

func (c *Config) validateSources() error {
	keys := make(map[string]bool, len(c.Sources))
	folders := make(map[string]bool, len(c.Sources))

	for i := range c.Sources {
		src := &c.Sources[i]
		if keys[src.Key] {
			return fmt.Errorf("sources.%d.key %q is used more than once", i, src.Key)
		}
		keys[src.Key] = true

		if folders[src.Folder] {
			return fmt.Errorf("sources.%d.folder %q is used more than once", i, src.Folder)
		}
		folders[src.Folder] = true

		if err := validateSSH(i, &src.SSH); err != nil {
			return err
		}
		if src.Database.PasswordEnv != "" && os.Getenv(src.Database.PasswordEnv) == "" {
			return fmt.Errorf("sources.%d.database.password_env: %s is not set", i, src.Database.PasswordEnv)
		}

		for j := range src.Destinations {
			if err := c.validateDestination(i, j, &src.Destinations[j]); err != nil {
				return err
			}
		}
	}
	return c.validateRepoPaths()
}

// validateRepoPaths rejects repo folders that another destination or a local
// archive folder already writes to. Retention runs per folder, so two writers
// would prune each other's copies.
func (c *Config) validateRepoPaths() error {
	owners := make(map[string]string)
	for i := range c.Sources {
		owners[filepath.Clean(c.Sources[i].LocalDir(c.Archive.Root))] = fmt.Sprintf("the local archive of sources.%d", i)
	}
	for i := range c.Sources {
		for j, d := range c.Sources[i].Destinations {
			if d.Kind != KindRepo {
				continue
			}
			field := fmt.Sprintf("sources.%d.destinations.%d", i, j)
			dir := filepath.Clean(filepath.Join(c.Repository.Path, d.Path))
			if owner, ok := owners[dir]; ok {
				return fmt.Errorf("%s.path %q is already used by %s", field, d.Path, owner)
			}
			owners[dir] = field
		}
	}
	return nil
}

func validateSSH(i int, s *SSHConfig) error {
	if s.PasswordEnv == "" && s.KeyFile == "" {
		return fmt.Errorf("sources.%d.ssh: one of password_env or key_file is required", i)
	}
	if s.PasswordEnv != "" && os.Getenv(s.PasswordEnv) == "" {
		return fmt.Errorf("sources.%d.ssh.password_env: %s is not set", i, s.PasswordEnv)
	}
	if s.KnownHostsFile == "" && !s.InsecureIgnoreHostKey {
		return fmt.Errorf("sources.%d.ssh: known_hosts_file is required unless insecure_ignore_host_key=true", i)
	}
	return nil
}

func (c *Config) validateDestination(i, j int, d *DestinationConfig) error {
	field := fmt.Sprintf("sources.%d.destinations.%d", i, j)

	switch d.Kind {
	case KindDrive:
		if !c.Drive.Enabled {
			return fmt.Errorf("%s: kind=drive requires drive.enabled=true", field)
		}
		if d.FolderID == "" {
			return fmt.Errorf("%s.folder_id is required for kind=drive", field)
		}
	case KindS3:
		if !c.S3.Enabled {
			return fmt.Errorf("%s: kind=s3 requires s3.enabled=true", field)
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("%s: kind=s3 requires s3.bucket", field)
		}
	case KindRepo:
		if c.Repository.Path == "" {
			return fmt.Errorf("%s: kind=repo requires repository.path", field)
		}
		if d.Path == "" {
			return fmt.Errorf("%s.path is required for kind=repo", field)
		}
		if filepath.IsAbs(d.Path) || escapesRoot(d.Path) {
			return fmt.Errorf("%s.path %q must stay inside the repository", field, d.Path)
		}
	}
	return nil
}

func escapesRoot(p string) bool {
	clean := filepath.ToSlash(filepath.Clean(p))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// UsesKind reports whether any source has a destination of the given kind.
func (c *Config) UsesKind(kind string) bool {
	for i := range c.Sources {
		for j := range c.Sources[i].Destinations {
			if c.Sources[i].Destinations[j].Kind == kind {
				return true
			}
		}
	}
	return false
}
