// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

// Package memstore provides an in-memory ModelStore, StatusReader and
// Notifier, used by the end-to-end test suite and by single-node
// operation without Redis. It has no natural third-party library home —
// it exists purely as a test double over plain Go maps, the same shape
// the teacher's own operations_test.go fixtures use for in-process
// state — so it is built on the standard library alone.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/rinswind/wadm-manifest-handler/internal/manifest"
)

type row struct {
	sm  manifest.StoredManifest
	rev manifest.Revision
}

// Store is an in-memory manifest.ModelStore, safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	rows map[string]row
}

func NewStore() *Store {
	return &Store{rows: make(map[string]row)}
}

func storeKey(key manifest.ModelKey) string {
	return key.AccountID + "/" + key.LatticeID + "/" + key.Name
}

func (s *Store) Get(_ context.Context, key manifest.ModelKey) (manifest.StoredManifest, manifest.Revision, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[storeKey(key)]
	if !ok {
		return manifest.StoredManifest{}, 0, false, nil
	}
	sm := r.sm
	sm.Versions = append([]manifest.Manifest(nil), r.sm.Versions...)
	return sm, r.rev, true, nil
}

func (s *Store) Set(_ context.Context, key manifest.ModelKey, sm manifest.StoredManifest, expectedRevision manifest.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := storeKey(key)
	current, exists := s.rows[k]
	currentRev := manifest.Revision(0)
	if exists {
		currentRev = current.rev
	}
	if currentRev != expectedRevision {
		return fmt.Errorf("%w: expected revision %d, found %d", manifest.ErrConflict, expectedRevision, currentRev)
	}
	s.rows[k] = row{sm: sm, rev: currentRev + 1}
	return nil
}

func (s *Store) List(_ context.Context, accountID, latticeID string) ([]manifest.ModelSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := accountID + "/" + latticeID + "/"
	var out []manifest.ModelSummary
	for k, r := range s.rows {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		out = append(out, manifest.ModelSummary{
			Name:            r.sm.Name(),
			DeployedVersion: r.sm.DeployedVersion,
		})
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, key manifest.ModelKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, storeKey(key))
	return nil
}

// StatusLog is an in-memory manifest.StatusReader backed by a map of
// subject to last-written payload.
type StatusLog struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewStatusLog() *StatusLog {
	return &StatusLog{entries: make(map[string][]byte)}
}

func (l *StatusLog) GetLast(_ context.Context, subject string) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	payload, ok := l.entries[subject]
	return payload, ok, nil
}

// Publish writes payload as the latest entry on subject, simulating the
// append-only status log's "last message on subject" read.
func (l *StatusLog) Publish(subject string, payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[subject] = payload
}

// Notifier records deploy/undeploy notifications in memory for
// assertions in tests. Set FailNext to make the next call fail once,
// simulating a PublishError after a successful store write.
type Notifier struct {
	mu              sync.Mutex
	DeployedCalls   []manifest.Manifest
	UndeployedCalls []string
	FailNext        bool
}

func (n *Notifier) Deployed(_ context.Context, _ string, m manifest.Manifest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailNext {
		n.FailNext = false
		return fmt.Errorf("%w: simulated publish failure", manifest.ErrPublish)
	}
	n.DeployedCalls = append(n.DeployedCalls, m)
	return nil
}

func (n *Notifier) Undeployed(_ context.Context, _ string, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailNext {
		n.FailNext = false
		return fmt.Errorf("%w: simulated publish failure", manifest.ErrPublish)
	}
	n.UndeployedCalls = append(n.UndeployedCalls, name)
	return nil
}
