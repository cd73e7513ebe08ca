// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import "errors"

// Sentinel errors distinguished by the handler's reply policy. Wrap with
// fmt.Errorf("...: %w", ErrX) at the point of origin so callers can test
// with errors.Is while still getting a human-readable message.
var (
	// ErrParse marks a request payload that failed to decode.
	ErrParse = errors.New("failed to parse request payload")

	// ErrValidation marks a manifest that failed ManifestValidator.
	ErrValidation = errors.New("manifest validation failed")

	// ErrNotFound marks a store miss.
	ErrNotFound = errors.New("model not found")

	// ErrConflict marks a compare-and-set revision mismatch.
	ErrConflict = errors.New("concurrent modification, revision mismatch")

	// ErrStorage marks a store I/O failure unrelated to CAS.
	ErrStorage = errors.New("internal storage error")

	// ErrPublish marks a notifier publish failure. The store write that
	// preceded it already succeeded; the caller must retry the verb.
	ErrPublish = errors.New("failed to notify reconcilers")
)
