// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package producer creates database dumps on remote hosts and copies them
// into the local archive. It implements backup.Producer.
//
// The database itself is never reached directly: Dumpwarden logs in to the
// database host over SSH, runs mysqldump (or the configured command) there
// and downloads the result over SFTP on the same connection.
//
// Host keys are checked against a known_hosts file. Accepting any key needs
// insecure_ignore_host_key in the source config and logs a warning on every
// connection.
//
// Passwords are only ever read from the environment (config *_env fields)
// and never logged; the dump command is logged with the -p argument masked.
package producer
