// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package backup

import (
	"sort"
)

// SelectForDeletion returns the refs that fall outside a keep-last-N window.
//
// existing must be ordered newest first, as returned by Destination.List.
// Every element at index >= keep is selected, in the same order. keep <= 0
// selects everything. Equal timestamps are not re-ordered: the list order
// decides which of them survive.
func SelectForDeletion(existing []ArtifactRef, keep int) []ArtifactRef {
	if keep < 0 {
		keep = 0
	}
	if len(existing) <= keep {
		return nil
	}

	victims := make([]ArtifactRef, len(existing)-keep)
	copy(victims, existing[keep:])
	return victims
}

// SortNewestFirst orders refs by ModifiedAt descending, breaking ties by
// Name descending so that timestamped names sort the same way as their times.
func SortNewestFirst(refs []ArtifactRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].ModifiedAt.Equal(refs[j].ModifiedAt) {
			return refs[i].ModifiedAt.After(refs[j].ModifiedAt)
		}
		return refs[i].Name > refs[j].Name
	})
}

// refNames returns the names of refs for logging.
func refNames(refs []ArtifactRef) []string {
	names := make([]string, len(refs))
	for i := range refs {
		names[i] = refs[i].Name
	}
	return names
}
