// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"encoding/base64"
	"encoding/json"
)

// StatusType is the deployment status lifecycle of one model version.
type StatusType string

const (
	StatusUndeployed  StatusType = "Undeployed"
	StatusReconciling StatusType = "Reconciling"
	StatusDeployed    StatusType = "Deployed"
	StatusFailed      StatusType = "Failed"
	StatusWaiting     StatusType = "Waiting"
)

// StatusInfo is the decoded payload of a status log entry.
type StatusInfo struct {
	StatusType StatusType `json:"status_type"`
	Message    string     `json:"message"`
}

// StatusReader reads the last message appended to a status subject. The
// core only consumes this interface; the status log itself is out of
// scope. Reads should go to the cluster leader to avoid stale replicas,
// a property of the concrete implementation, not this contract.
type StatusReader interface {
	// GetLast returns the raw (base64-encoded JSON) payload most
	// recently appended to subject, or ok=false if nothing has been
	// written yet.
	GetLast(ctx context.Context, subject string) (payload []byte, ok bool, err error)
}

// StatusSubject builds the "wadm.status.<lattice>.<name>" subject a
// StatusReader is queried on. account_id does not partition this
// subject; see the open question on this in DESIGN.md.
func StatusSubject(latticeID, name string) string {
	return "wadm.status." + latticeID + "." + name
}

// DecodeStatus decodes a raw status payload (base64 JSON). A malformed
// payload is treated as "no status", i.e. Undeployed with no message,
// per the StatusDecodeError policy: never surfaced as a handler error.
func DecodeStatus(payload []byte) StatusInfo {
	raw, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return StatusInfo{StatusType: StatusUndeployed}
	}
	var info StatusInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return StatusInfo{StatusType: StatusUndeployed}
	}
	return info
}

// ReadStatus is the read-through helper used everywhere a handler method
// needs "status, or Undeployed if absent/undecodable".
func ReadStatus(ctx context.Context, reader StatusReader, latticeID, name string) StatusInfo {
	payload, ok, err := reader.GetLast(ctx, StatusSubject(latticeID, name))
	if err != nil || !ok {
		return StatusInfo{StatusType: StatusUndeployed}
	}
	return DecodeStatus(payload)
}
