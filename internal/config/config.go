// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Destination kinds accepted in sources[].destinations[].kind.
const (
	KindDrive = "drive"
	KindS3    = "s3"
	KindRepo  = "repo"
)

// Schedule modes.
const (
	ScheduleDaily    = "daily"
	ScheduleInterval = "interval"
)

// Config holds the complete application configuration.
type Config struct {
	Schedule    ScheduleConfig    `koanf:"schedule"`
	Archive     ArchiveConfig     `koanf:"archive"`
	Retention   RetentionConfig   `koanf:"retention"`
	Replication ReplicationConfig `koanf:"replication"`
	Drive       DriveConfig       `koanf:"drive"`
	S3          S3Config          `koanf:"s3"`
	Repository  RepositoryConfig  `koanf:"repository"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Sources     []SourceConfig    `koanf:"sources" validate:"min=1,dive"`
}

// ScheduleConfig controls when backup runs start.
type ScheduleConfig struct {
	// Mode is "daily" (run at At every day) or "interval" (run every Interval).
	Mode string `koanf:"mode" validate:"oneof=daily interval"`

	// At is the wall-clock time for daily mode, HH:MM.
	At string `koanf:"at" validate:"omitempty,clock"`

	// Interval is the period for interval mode.
	Interval time.Duration `koanf:"interval"`

	// Timezone is an IANA zone name used to interpret At. Empty means local time.
	Timezone string `koanf:"timezone"`

	// RunOnStart triggers one run immediately after startup.
	RunOnStart bool `koanf:"run_on_start"`
}

// Location resolves Timezone. It falls back to time.Local when unset.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// ArchiveConfig describes the local archive tier.
type ArchiveConfig struct {
	// Root is the directory holding one sub-folder per source.
	Root string `koanf:"root" validate:"required"`

	// Extension is the file extension of dump artifacts.
	Extension string `koanf:"extension" validate:"required,startswith=."`
}

// RetentionConfig holds the fallback keep-last-N limit.
type RetentionConfig struct {
	// Keep applies to every local archive and destination without its own keep.
	Keep int `koanf:"keep" validate:"gte=1"`
}

// ReplicationConfig tunes the per-artifact fan-out.
type ReplicationConfig struct {
	// Parallelism is the number of destinations served concurrently per source.
	Parallelism int `koanf:"parallelism" validate:"gte=1,lte=16"`

	// Timeout bounds each store, list and prune call unless a destination overrides it.
	Timeout time.Duration `koanf:"timeout"`
}

// BreakerConfig configures the circuit breaker in front of an object store.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// DriveConfig configures the Google Drive object store and its OAuth session.
type DriveConfig struct {
	Enabled bool `koanf:"enabled"`

	// CredentialsFile is the OAuth client secret JSON downloaded from the console.
	CredentialsFile string `koanf:"credentials_file"`

	// TokenFile stores the user token; it is rewritten after every refresh.
	TokenFile string `koanf:"token_file"`

	// AuthListenAddr is where "dumpwarden auth" receives the OAuth redirect.
	AuthListenAddr string `koanf:"auth_listen_addr"`

	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=0"`
	Breaker           BreakerConfig `koanf:"breaker"`
}

// S3Config configures the S3 object store.
type S3Config struct {
	Enabled      bool   `koanf:"enabled"`
	Region       string `koanf:"region"`
	Bucket       string `koanf:"bucket"`
	Endpoint     string `koanf:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `koanf:"use_path_style"`

	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=0"`
	Breaker           BreakerConfig `koanf:"breaker"`
}

// RepositoryConfig configures the git working tree used by repo destinations.
type RepositoryConfig struct {
	Path          string        `koanf:"path"`
	Remote        string        `koanf:"remote"`
	Branch        string        `koanf:"branch"`
	CommitMessage string        `koanf:"commit_message"`
	AuthorName    string        `koanf:"author_name"`
	AuthorEmail   string        `koanf:"author_email"`
	GitBinary     string        `koanf:"git_binary"`
	Timeout       time.Duration `koanf:"timeout"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Addr            string        `koanf:"addr"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"`
	RateWindow      time.Duration `koanf:"rate_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SourceConfig describes one database to dump.
type SourceConfig struct {
	// Key identifies the source in object names, logs and metrics.
	Key string `koanf:"key" validate:"required,sourcekey"`

	DisplayName string `koanf:"display_name"`

	// Folder is the sub-folder of archive.root holding this source's dumps.
	Folder string `koanf:"folder" validate:"required,dirname"`

	// Keep overrides retention.keep for the local archive.
	Keep *int `koanf:"keep" validate:"omitempty,gte=1"`

	// Timeout bounds the whole produce step.
	Timeout time.Duration `koanf:"timeout"`

	SSH          SSHConfig           `koanf:"ssh"`
	Database     DatabaseConfig      `koanf:"database"`
	Destinations []DestinationConfig `koanf:"destinations" validate:"dive"`
}

// LocalDir returns the archive folder for the source.
func (s *SourceConfig) LocalDir(root string) string {
	return filepath.Join(root, s.Folder)
}

// LocalKeep returns the keep limit of the local archive.
func (s *SourceConfig) LocalKeep(def int) int {
	if s.Keep != nil {
		return *s.Keep
	}
	return def
}

// Name returns DisplayName, or Key when no display name is set.
func (s *SourceConfig) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Key
}

// SSHConfig describes how to reach the database host.
type SSHConfig struct {
	Host string `koanf:"host" validate:"required,hostname_rfc1123|ip"`
	Port int    `koanf:"port" validate:"omitempty,gte=1,lte=65535"`
	User string `koanf:"user" validate:"required"`

	// PasswordEnv names the environment variable holding the SSH password.
	PasswordEnv string `koanf:"password_env"`

	// KeyFile is a private key used instead of a password.
	KeyFile string `koanf:"key_file"`

	// KeyPassphraseEnv names the environment variable holding the key passphrase.
	KeyPassphraseEnv string `koanf:"key_passphrase_env"`

	// KnownHostsFile enables host key verification.
	KnownHostsFile string `koanf:"known_hosts_file"`

	// InsecureIgnoreHostKey accepts any host key. Required when KnownHostsFile is empty.
	InsecureIgnoreHostKey bool `koanf:"insecure_ignore_host_key"`

	Timeout time.Duration `koanf:"timeout"`
}

// Password resolves PasswordEnv.
func (s *SSHConfig) Password() string {
	return envValue(s.PasswordEnv)
}

// KeyPassphrase resolves KeyPassphraseEnv.
func (s *SSHConfig) KeyPassphrase() string {
	return envValue(s.KeyPassphraseEnv)
}

// DatabaseConfig describes the database as seen from the SSH host.
type DatabaseConfig struct {
	Name        string   `koanf:"name" validate:"required"`
	User        string   `koanf:"user" validate:"required"`
	PasswordEnv string   `koanf:"password_env"`
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port" validate:"omitempty,gte=1,lte=65535"`
	DumpCommand string   `koanf:"dump_command"`
	ExtraArgs   []string `koanf:"extra_args"`
}

// Password resolves PasswordEnv.
func (d *DatabaseConfig) Password() string {
	return envValue(d.PasswordEnv)
}

// DestinationConfig describes one remote copy of a source's dumps.
type DestinationConfig struct {
	Kind string `koanf:"kind" validate:"required,oneof=drive s3 repo"`

	// FolderID is the Drive folder for kind=drive.
	FolderID string `koanf:"folder_id"`

	// Prefix is the key prefix inside the bucket for kind=s3.
	Prefix string `koanf:"prefix"`

	// Path is the directory inside the repository for kind=repo.
	Path string `koanf:"path"`

	Keep    *int          `koanf:"keep" validate:"omitempty,gte=0"`
	Timeout time.Duration `koanf:"timeout"`
}

// KeepOr returns the destination keep limit or def.
func (d *DestinationConfig) KeepOr(def int) int {
	if d.Keep != nil {
		return *d.Keep
	}
	return def
}

// TimeoutOr returns the destination timeout or def.
func (d *DestinationConfig) TimeoutOr(def time.Duration) time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return def
}

func envValue(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
