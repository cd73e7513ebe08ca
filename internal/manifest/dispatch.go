// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"
)

// Verb identifies one of the eight request verbs, model_status among them, as it
// appears in the "wadm.api.<lattice>.model.<verb>[.<name>]" subject.
type Verb string

const (
	VerbPut      Verb = "put"
	VerbGet      Verb = "get"
	VerbList     Verb = "list"
	VerbVersions Verb = "versions"
	VerbDelete   Verb = "del"
	VerbDeploy   Verb = "deploy"
	VerbUndeploy Verb = "undeploy"
	VerbStatus   Verb = "status"
)

// Dispatch is the single entry point a bus transport calls with a
// decoded subject and raw payload. It owns no transport concerns itself
// (subject parsing, reply delivery): callers supply the already-split
// verb/key and receive back a JSON-marshalable reply value, an
// ErrValidation error if a verb other than put or list arrives with an
// empty model name, or an ErrParse error if the payload could not be
// decoded for the verb's request shape. This is the seam described in §6: the handler is reachable from
// any bus implementation through plain Go types.
func (h *RequestHandler) Dispatch(ctx context.Context, verb Verb, key ModelKey, payload []byte, contentType string) (any, error) {
	if verb != VerbPut && verb != VerbList {
		if err := validateRequestEnvelope(key, nil, nil); err != nil {
			return nil, err
		}
	}

	switch verb {
	case VerbPut:
		return h.PutModel(ctx, key, payload, contentType), nil
	case VerbGet:
		req, err := decodeJSON[GetModelRequest](payload)
		if err != nil {
			return nil, err
		}
		return h.GetModel(ctx, key, req), nil
	case VerbList:
		return h.ListModels(ctx, key.AccountID, key.LatticeID), nil
	case VerbVersions:
		return h.ListVersions(ctx, key), nil
	case VerbDelete:
		req, err := decodeJSON[DeleteModelRequest](payload)
		if err != nil {
			return nil, err
		}
		return h.DeleteModel(ctx, key, req), nil
	case VerbDeploy:
		req, err := decodeJSON[DeployModelRequest](payload)
		if err != nil {
			return nil, err
		}
		return h.DeployModel(ctx, key, req), nil
	case VerbUndeploy:
		return h.UndeployModel(ctx, key), nil
	case VerbStatus:
		return h.ModelStatus(ctx, key), nil
	default:
		return nil, fmt.Errorf("%w: unknown verb %q", ErrParse, verb)
	}
}
