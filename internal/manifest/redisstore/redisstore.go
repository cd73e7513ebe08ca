// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

// Package redisstore backs manifest.ModelStore and manifest.StatusReader
// with Redis, grounded on the distributed-coordination use of go-redis
// in internal/infrastructure/lock/distributed.go of the alert-history
// service this pack was enriched from: a Lua script
// performs the compare-and-set atomically, and status reads use a capped
// Redis Stream's last entry as the "last message on subject" read.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rinswind/wadm-manifest-handler/internal/manifest"
)

// casScript atomically compares the row's stored revision against
// expectedRevision and, on match, writes the new value and bumps the
// revision. KEYS[1] is the row key, KEYS[2] the revision key. Returns -1
// on a revision mismatch (never a valid revision) so the caller never has
// to infer a conflict from a numeric revision that could coincide with a
// successful write's result.
const casScript = `
local currentRev = tonumber(redis.call("GET", KEYS[2]) or "0")
local expectedRev = tonumber(ARGV[2])
if currentRev ~= expectedRev then
	return -1
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], currentRev + 1)
return currentRev + 1
`

// Store implements manifest.ModelStore against a Redis keyspace. Keys
// are namespaced "wadm:model:<account>:<lattice>:<name>" with a
// companion "...:rev" key holding the revision counter.
type Store struct {
	rdb    *redis.Client
	script *redis.Script
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, script: redis.NewScript(casScript)}
}

func rowKey(key manifest.ModelKey) string {
	return fmt.Sprintf("wadm:model:%s:%s:%s", key.AccountID, key.LatticeID, key.Name)
}

func revKey(key manifest.ModelKey) string {
	return rowKey(key) + ":rev"
}

func (s *Store) Get(ctx context.Context, key manifest.ModelKey) (manifest.StoredManifest, manifest.Revision, bool, error) {
	raw, err := s.rdb.Get(ctx, rowKey(key)).Bytes()
	if err == redis.Nil {
		return manifest.StoredManifest{}, 0, false, nil
	}
	if err != nil {
		return manifest.StoredManifest{}, 0, false, fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	var sm manifest.StoredManifest
	if err := json.Unmarshal(raw, &sm); err != nil {
		return manifest.StoredManifest{}, 0, false, fmt.Errorf("%w: corrupt stored manifest: %v", manifest.ErrStorage, err)
	}
	revRaw, err := s.rdb.Get(ctx, revKey(key)).Result()
	if err != nil && err != redis.Nil {
		return manifest.StoredManifest{}, 0, false, fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	rev, _ := strconv.ParseUint(revRaw, 10, 64)
	return sm, manifest.Revision(rev), true, nil
}

func (s *Store) Set(ctx context.Context, key manifest.ModelKey, sm manifest.StoredManifest, expectedRevision manifest.Revision) error {
	raw, err := json.Marshal(sm)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal stored manifest: %v", manifest.ErrStorage, err)
	}
	result, err := s.script.Run(ctx, s.rdb, []string{rowKey(key), revKey(key)}, string(raw), int64(expectedRevision)).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	if result == -1 {
		return fmt.Errorf("%w: expected revision %d", manifest.ErrConflict, expectedRevision)
	}
	return nil
}

func (s *Store) List(ctx context.Context, accountID, latticeID string) ([]manifest.ModelSummary, error) {
	pattern := fmt.Sprintf("wadm:model:%s:%s:*", accountID, latticeID)
	var summaries []manifest.ModelSummary
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if len(k) > 4 && k[len(k)-4:] == ":rev" {
			continue
		}
		raw, err := s.rdb.Get(ctx, k).Bytes()
		if err != nil {
			continue
		}
		var sm manifest.StoredManifest
		if err := json.Unmarshal(raw, &sm); err != nil {
			continue
		}
		summaries = append(summaries, manifest.ModelSummary{
			Name:            sm.Name(),
			DeployedVersion: sm.DeployedVersion,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	return summaries, nil
}

func (s *Store) Delete(ctx context.Context, key manifest.ModelKey) error {
	if err := s.rdb.Del(ctx, rowKey(key), revKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	return nil
}

// StatusReader implements manifest.StatusReader against a Redis Stream
// per subject, reading only the most recent entry.
type StatusReader struct {
	rdb *redis.Client
}

func NewStatusReader(rdb *redis.Client) *StatusReader {
	return &StatusReader{rdb: rdb}
}

func (r *StatusReader) GetLast(ctx context.Context, subject string) ([]byte, bool, error) {
	entries, err := r.rdb.XRevRangeN(ctx, "wadm:status:"+subject, "+", "-", 1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", manifest.ErrStorage, err)
	}
	if len(entries) == 0 {
		return nil, false, nil
	}
	payload, ok := entries[0].Values["payload"].(string)
	if !ok {
		return nil, false, nil
	}
	return []byte(payload), true, nil
}
