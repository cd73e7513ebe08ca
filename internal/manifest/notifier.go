// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import "context"

// Notifier publishes deploy/undeploy notifications to downstream
// reconcilers. Publishing is at-least-once; duplicate suppression is the
// reconciler's problem, which is what makes caller-driven retry after a
// PublishError safe.
type Notifier interface {
	Deployed(ctx context.Context, latticeID string, m Manifest) error
	Undeployed(ctx context.Context, latticeID, name string) error
}
