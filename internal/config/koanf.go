// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"dumpwarden.yaml",
	"dumpwarden.yml",
	"config.yaml",
	"/etc/dumpwarden/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the location of the .env file holding credentials.
const DotEnvPathEnvVar = "DOTENV_PATH"

func defaultConfig() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			Mode:       ScheduleDaily,
			At:         "02:00",
			Interval:   24 * time.Hour,
			RunOnStart: false,
		},
		Archive: ArchiveConfig{
			Root:      "backups",
			Extension: ".sql",
		},
		Retention: RetentionConfig{
			Keep: 10,
		},
		Replication: ReplicationConfig{
			Parallelism: 1,
			Timeout:     5 * time.Minute,
		},
		Drive: DriveConfig{
			Enabled:           false,
			CredentialsFile:   "credentials.json",
			TokenFile:         "token.json",
			AuthListenAddr:    "localhost:8080",
			RequestsPerSecond: 5,
			Burst:             10,
			Breaker:           defaultBreaker(),
		},
		S3: S3Config{
			Enabled:           false,
			RequestsPerSecond: 20,
			Burst:             40,
			Breaker:           defaultBreaker(),
		},
		Repository: RepositoryConfig{
			Remote:        "origin",
			CommitMessage: "Update database dumps",
			GitBinary:     "git",
			Timeout:       2 * time.Minute,
		},
		Server: ServerConfig{
			Enabled:         true,
			Addr:            "127.0.0.1:9477",
			RateLimit:       60,
			RateWindow:      time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

func defaultBreaker() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: YAML file at path, CONFIG_PATH, or the first of DefaultConfigPaths
//  3. Environment Variables: explicit names from envMappings
//
// Before the environment layer is read, a .env file (DOTENV_PATH or ./.env) is
// loaded into the process environment without overriding variables already set.
// Secrets referenced by *_env fields are resolved from that environment.
//
// An empty path means "search".
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads the .env file if present. A missing default file is not an error;
// a missing file named by DOTENV_PATH is.
func loadDotEnv() error {
	p := os.Getenv(DotEnvPathEnvVar)
	explicit := p != ""
	if !explicit {
		p = ".env"
	}

	err := godotenv.Load(p)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", p, err)
}

// findConfigFile returns the first existing config file, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored so that unrelated environment
// variables cannot leak into the configuration.
var envMappings = map[string]string{
	// Schedule
	"schedule_mode":     "schedule.mode",
	"schedule_at":       "schedule.at",
	"schedule_interval": "schedule.interval",
	"schedule_timezone": "schedule.timezone",
	"run_on_start":      "schedule.run_on_start",

	// Archive and retention
	"archive_root":      "archive.root",
	"archive_extension": "archive.extension",
	"retention_keep":    "retention.keep",

	// Replication
	"replication_parallelism": "replication.parallelism",
	"replication_timeout":     "replication.timeout",

	// Google Drive
	"drive_enabled":          "drive.enabled",
	"drive_credentials_file": "drive.credentials_file",
	"drive_token_file":       "drive.token_file",
	"drive_auth_listen_addr": "drive.auth_listen_addr",
	"drive_rps":              "drive.requests_per_second",

	// S3
	"s3_enabled":        "s3.enabled",
	"s3_region":         "s3.region",
	"s3_bucket":         "s3.bucket",
	"s3_endpoint":       "s3.endpoint",
	"s3_use_path_style": "s3.use_path_style",
	"s3_rps":            "s3.requests_per_second",

	// Repository
	"repo_path":           "repository.path",
	"repo_remote":         "repository.remote",
	"repo_branch":         "repository.branch",
	"repo_commit_message": "repository.commit_message",
	"repo_timeout":        "repository.timeout",
	"git_binary":          "repository.git_binary",

	// Status server
	"status_enabled":    "server.enabled",
	"status_addr":       "server.addr",
	"status_rate_limit": "server.rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SCHEDULE_AT -> schedule.at
//   - DRIVE_TOKEN_FILE -> drive.token_file
//   - REPO_PATH -> repository.path
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
