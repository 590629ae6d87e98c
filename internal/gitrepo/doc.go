// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package gitrepo commits and pushes the repository that repo destinations
// write into. It shells out to the git binary so the host's credential
// helpers and SSH agent apply unchanged.
package gitrepo
