// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import "context"

// Revision is an opaque monotonic token attached to a store row, used
// for compare-and-set writes. The zero value means "no row observed
// yet" and is only valid as an expected revision on a first write.
type Revision uint64

// ModelKey identifies one StoredManifest row.
type ModelKey struct {
	AccountID string // optional; empty when account scoping is unused
	LatticeID string
	Name      string
}

// ModelSummary is the listing projection of a StoredManifest, overlaid
// with the most recent status known to the caller.
type ModelSummary struct {
	Name            string
	DeployedVersion string // empty if nothing is deployed
	Status          StatusType
	StatusMessage   string
}

// ModelStore is the revisioned get/set/list/delete contract this core
// consumes. Implementations MUST be strongly consistent per key and
// provide atomic compare-and-set on Set's expectedRevision. The core
// never retries on conflict; callers retry the whole request.
type ModelStore interface {
	// Get returns the stored aggregate and its revision, or ok=false if
	// no row exists for key.
	Get(ctx context.Context, key ModelKey) (sm StoredManifest, rev Revision, ok bool, err error)

	// Set writes sm under key, conditional on expectedRevision matching
	// the row's current revision (0 means "row must not exist yet").
	// Returns ErrConflict on mismatch.
	Set(ctx context.Context, key ModelKey, sm StoredManifest, expectedRevision Revision) error

	// List returns summaries for every model in (accountID, latticeID).
	List(ctx context.Context, accountID, latticeID string) ([]ModelSummary, error)

	// Delete removes the row for key entirely.
	Delete(ctx context.Context, key ModelKey) error
}
