// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package config provides centralized configuration management for Dumpwarden.

Configuration is layered with Koanf v2. Later layers override earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: the --config flag, CONFIG_PATH, or the first existing entry of
    DefaultConfigPaths
 3. Environment variables listed in envMappings

Sources and their destinations are lists and can only come from the YAML file.
Scalar settings can be overridden from the environment, which keeps container
deployments free of file edits.

# Secrets

Passwords never appear in YAML. Fields ending in _env name the environment
variable that holds the secret:

	sources:
	  - key: bopo
	    folder: BOPO_test
	    ssh:
	      host: db1.example.com
	      user: backup
	      password_env: BOPO_SSH_PASSWORD
	      insecure_ignore_host_key: true
	    database:
	      name: bopo
	      user: dumper
	      password_env: BOPO_DB_PASSWORD
	    destinations:
	      - kind: drive
	        folder_id: 1AbCdEf
	        keep: 10
	      - kind: repo
	        path: dumps/bopo

Before the environment layer is read, a .env file (./.env or DOTENV_PATH) is
loaded with godotenv. Variables already present in the process environment
win over the file.

# Environment Variables

Schedule:
  - SCHEDULE_MODE: daily or interval (default: daily)
  - SCHEDULE_AT: HH:MM for daily mode (default: 02:00)
  - SCHEDULE_INTERVAL: period for interval mode (default: 24h)
  - SCHEDULE_TIMEZONE: IANA zone for SCHEDULE_AT (default: local)
  - RUN_ON_START: run once at startup (default: false)

Archive:
  - ARCHIVE_ROOT: parent of the per-source folders (default: backups)
  - ARCHIVE_EXTENSION: dump file extension (default: .sql)
  - RETENTION_KEEP: fallback keep-last-N (default: 10)

Replication:
  - REPLICATION_PARALLELISM: destinations served at once (default: 1)
  - REPLICATION_TIMEOUT: per-call timeout (default: 5m)

Google Drive:
  - DRIVE_ENABLED, DRIVE_CREDENTIALS_FILE, DRIVE_TOKEN_FILE, DRIVE_AUTH_LISTEN_ADDR, DRIVE_RPS

S3:
  - S3_ENABLED, S3_REGION, S3_BUCKET, S3_ENDPOINT, S3_USE_PATH_STYLE, S3_RPS

Repository:
  - REPO_PATH, REPO_REMOTE, REPO_BRANCH, REPO_COMMIT_MESSAGE, REPO_TIMEOUT, GIT_BINARY

Status server:
  - STATUS_ENABLED, STATUS_ADDR, STATUS_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Validate runs the struct tags through internal/validation and then checks the
rules that span fields: unique source keys and folders, one SSH auth method
per source, referenced secrets present in the environment, and destination
kinds backed by an enabled store.
*/
package config
