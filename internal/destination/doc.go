// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package destination implements the three backup.Destination variants.

	Local   - the source's archive folder; the producer already wrote the file there
	Remote  - a folder in an object store (Google Drive folder, S3 key prefix)
	Repo    - a folder inside a git working tree; published later by gitrepo.Repo

# Naming

Copies that leave the archive folder are renamed so that two artifacts created
in the same second never collide:

	remote:  <source>_<20060102T150405Z>-<8 hex><ext>     e.g. bopo_20260301T020000Z-1a2b3c4d.sql
	repo:    <source>_<20060102T150405Z>-<8 hex>_<original name>
	         e.g. bopo_20260301T020004Z-9f8e7d6c_dump_20260301_020000.sql

Remote names use the artifact's creation time. Repo names use the clock at the
time of the copy. Both start with the source key, and List only returns names
carrying that exact key followed by a valid stamp, so retention for one source
never touches another source's files in a shared folder.

# Ordering

List always returns newest first. Local and Repo order by file mtime, Remote by
the store's own timestamp; ties fall back to name descending. Each destination
is ordered by its own clock, so skew between hosts never mixes tiers.

# Pruning

Prune deletes each ref independently. A ref that is already gone counts as
deleted; every other failure is collected and returned with errors.Join.
*/
package destination
