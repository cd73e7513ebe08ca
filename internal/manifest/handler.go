// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestHandler serves the eight request verbs, model_status among them. One
// instance serves every request on a node; all state lives in Store,
// Status and Notify, so a RequestHandler itself is safe to share across
// concurrently running request tasks without locking.
type RequestHandler struct {
	Store  ModelStore
	Status StatusReader
	Notify Notifier

	metrics *handlerMetrics
}

// NewRequestHandler wires a RequestHandler against its three
// collaborators. reg may be nil, in which case metrics are registered
// against the global default registry.
func NewRequestHandler(store ModelStore, status StatusReader, notify Notifier, reg prometheus.Registerer) *RequestHandler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &RequestHandler{
		Store:   store,
		Status:  status,
		Notify:  notify,
		metrics: newHandlerMetrics(reg),
	}
}

// requestLogger attaches a per-request correlation id, the verb and the
// request's lattice and name to the ambient logr context via
// log.WithValues.
func requestLogger(ctx context.Context, verb string, key ModelKey) (context.Context, logr.Logger) {
	log := logr.FromContextOrDiscard(ctx).WithValues(
		"request_id", uuid.NewString(),
		"verb", verb,
		"lattice_id", key.LatticeID,
		"name", key.Name,
	)
	return logr.NewContext(ctx, log), log
}

// PutModel implements 4.7.1: parse, validate, append a version, and
// persist with optimistic concurrency.
func (h *RequestHandler) PutModel(ctx context.Context, key ModelKey, payload []byte, contentType string) PutModelReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "put_model", key)
	verb := "put_model"

	m, err := DecodeManifest(payload, contentType)
	if err != nil {
		log.Error(err, "failed to decode manifest payload")
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: err.Error()}
	}

	if m.Version == "" {
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: "manifest version must not be empty"}
	}
	if !ValidModelName(m.Metadata.Name) {
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: fmt.Sprintf("metadata.name %q contains invalid characters", m.Metadata.Name)}
	}
	key.Name = m.Metadata.Name

	sm, rev, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: ErrStorage.Error()}
	}
	wasEmpty := !ok || sm.IsEmpty()

	if err := ValidateManifest(m); err != nil {
		log.Error(err, "manifest validation failed")
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: err.Error()}
	}

	if !sm.AddVersion(m) {
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: fmt.Sprintf("Manifest version %s already exists", m.Version)}
	}

	if err := h.Store.Set(ctx, key, sm, rev); err != nil {
		log.Error(err, "store set failed")
		h.metrics.observe(verb, "error", start)
		return PutModelReply{Result: PutError, Message: storeWriteErrorMessage(err)}
	}

	result := PutNewVersion
	if wasEmpty {
		result = PutCreated
	}
	h.metrics.observe(verb, string(result), start)
	return PutModelReply{
		Result:         result,
		Name:           key.Name,
		CurrentVersion: m.Version,
		TotalVersions:  sm.Count(),
		Message:        fmt.Sprintf("created %s version %s", key.Name, m.Version),
	}
}

// GetModel implements 4.7.2.
func (h *RequestHandler) GetModel(ctx context.Context, key ModelKey, req GetModelRequest) GetModelReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "get_model", key)
	verb := "get_model"

	sm, _, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return GetModelReply{Result: GetError, Message: ErrStorage.Error()}
	}
	if !ok || sm.IsEmpty() {
		h.metrics.observe(verb, "not_found", start)
		return GetModelReply{Result: GetNotFound, Message: fmt.Sprintf("model %s not found", key.Name)}
	}

	if req.Version == "" {
		m := sm.GetCurrent()
		h.metrics.observe(verb, "success", start)
		return GetModelReply{Result: GetSuccess, Manifest: &m}
	}

	m, found := sm.GetVersion(req.Version)
	if !found {
		h.metrics.observe(verb, "not_found", start)
		return GetModelReply{Result: GetNotFound, Message: fmt.Sprintf("version %s not found for model %s", req.Version, key.Name)}
	}
	h.metrics.observe(verb, "success", start)
	return GetModelReply{Result: GetSuccess, Manifest: &m}
}

// ListModels implements 4.7.3: list summaries from the store and overlay
// live status; a missing status read yields Undeployed with no message.
func (h *RequestHandler) ListModels(ctx context.Context, accountID, latticeID string) ListModelsReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "list_models", ModelKey{AccountID: accountID, LatticeID: latticeID})
	verb := "list_models"

	summaries, err := h.Store.List(ctx, accountID, latticeID)
	if err != nil {
		log.Error(err, "store list failed")
		h.metrics.observe(verb, "error", start)
		return ListModelsReply{Result: ListError, Message: ErrStorage.Error()}
	}

	for i := range summaries {
		info := ReadStatus(ctx, h.Status, latticeID, summaries[i].Name)
		summaries[i].Status = info.StatusType
		summaries[i].StatusMessage = info.Message
	}

	h.metrics.observe(verb, "ok", start)
	return ListModelsReply{Result: ListOk, Models: summaries}
}

// ListVersions implements 4.7.4.
func (h *RequestHandler) ListVersions(ctx context.Context, key ModelKey) ListVersionsReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "list_versions", key)
	verb := "list_versions"

	sm, _, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return ListVersionsReply{Result: ListError, Message: ErrStorage.Error()}
	}
	if !ok {
		h.metrics.observe(verb, "not_found", start)
		return ListVersionsReply{Result: ListNotFound, Message: fmt.Sprintf("model %s not found", key.Name)}
	}

	versions := make([]VersionInfo, 0, sm.Count())
	for _, v := range sm.AllVersions() {
		versions = append(versions, VersionInfo{Version: v, Deployed: sm.IsDeployed(v)})
	}
	h.metrics.observe(verb, "ok", start)
	return ListVersionsReply{Result: ListOk, Versions: versions}
}

// DeleteModel implements 4.7.5, including the "err on the side of
// caution" undeploy re-notification on both Noop replies (model absent,
// or version absent). See the
// delete_model open question in DESIGN.md.
func (h *RequestHandler) DeleteModel(ctx context.Context, key ModelKey, req DeleteModelRequest) DeleteModelReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "delete_model", key)
	verb := "delete_model"

	var result DeleteResult
	var undeploy bool
	var message string

	if req.Version == "" {
		if err := h.Store.Delete(ctx, key); err != nil {
			log.Error(err, "store delete failed")
			h.metrics.observe(verb, "error", start)
			return DeleteModelReply{Result: DeleteError, Message: ErrStorage.Error()}
		}
		result, undeploy, message = DeleteDeleted, true, fmt.Sprintf("deleted model %s", key.Name)
	} else {
		sm, rev, ok, err := h.Store.Get(ctx, key)
		if err != nil {
			log.Error(err, "store get failed")
			h.metrics.observe(verb, "error", start)
			return DeleteModelReply{Result: DeleteError, Message: ErrStorage.Error()}
		}
		if !ok {
			if err := h.Notify.Undeployed(ctx, key.LatticeID, key.Name); err != nil {
				log.Error(err, "failed to notify reconcilers of undeploy")
				h.metrics.observe(verb, "publish_error", start)
				return DeleteModelReply{Result: DeleteError, Message: "delete succeeded but notification failed, please retry"}
			}
			h.metrics.observe(verb, "noop", start)
			return DeleteModelReply{Result: DeleteNoop, Undeploy: false, Message: fmt.Sprintf("model %s not found", key.Name)}
		}

		wasDeployed := sm.IsDeployed(req.Version)
		if !sm.DeleteVersion(req.Version) {
			result, undeploy, message = DeleteNoop, false, fmt.Sprintf("version %s not found", req.Version)
		} else if sm.IsEmpty() {
			if err := h.Store.Delete(ctx, key); err != nil {
				log.Error(err, "store delete failed")
				h.metrics.observe(verb, "error", start)
				return DeleteModelReply{Result: DeleteError, Message: ErrStorage.Error()}
			}
			result, undeploy, message = DeleteDeleted, true, fmt.Sprintf("deleted last version %s of model %s", req.Version, key.Name)
		} else {
			if err := h.Store.Set(ctx, key, sm, rev); err != nil {
				log.Error(err, "store set failed")
				h.metrics.observe(verb, "error", start)
				return DeleteModelReply{Result: DeleteError, Message: storeWriteErrorMessage(err)}
			}
			result, undeploy, message = DeleteDeleted, wasDeployed, fmt.Sprintf("deleted version %s of model %s", req.Version, key.Name)
		}
	}

	if undeploy || result == DeleteNoop {
		if err := h.Notify.Undeployed(ctx, key.LatticeID, key.Name); err != nil {
			log.Error(err, "failed to notify reconcilers of undeploy")
			h.metrics.observe(verb, "publish_error", start)
			return DeleteModelReply{Result: DeleteError, Message: "delete succeeded but notification failed, please retry"}
		}
	}

	h.metrics.observe(verb, string(result), start)
	return DeleteModelReply{Result: result, Undeploy: undeploy, Message: message}
}

// DeployModel implements 4.7.6: cross-manifest provider-version admission
// followed by setting the deployed pointer.
func (h *RequestHandler) DeployModel(ctx context.Context, key ModelKey, req DeployModelRequest) DeployModelReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "deploy_model", key)
	verb := "deploy_model"

	version := req.Version
	if version == LatestVersion {
		version = ""
	}

	sm, rev, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return DeployModelReply{Result: DeployError, Message: ErrStorage.Error()}
	}
	if !ok || sm.IsEmpty() {
		h.metrics.observe(verb, "not_found", start)
		return DeployModelReply{Result: DeployNotFound, Message: fmt.Sprintf("model %s not found", key.Name)}
	}

	target := version
	if target == "" {
		target = sm.GetCurrent().Version
	}
	staged, found := sm.GetVersion(target)
	if !found {
		h.metrics.observe(verb, "error", start)
		return DeployModelReply{Result: DeployError, Message: fmt.Sprintf("model %s does not have the specified version to deploy", key.Name)}
	}

	if conflict := findProviderConflict(ctx, h.Store, key, staged); conflict != "" {
		h.metrics.observe(verb, "conflict", start)
		return DeployModelReply{Result: DeployError, Message: conflict}
	}

	if !sm.Deploy(version) {
		h.metrics.observe(verb, "error", start)
		return DeployModelReply{Result: DeployError, Message: fmt.Sprintf("version %s not found for model %s", target, key.Name)}
	}

	if err := h.Store.Set(ctx, key, sm, rev); err != nil {
		log.Error(err, "store set failed")
		h.metrics.observe(verb, "error", start)
		return DeployModelReply{Result: DeployError, Message: storeWriteErrorMessage(err)}
	}

	deployed, _ := sm.GetDeployed()
	if err := h.Notify.Deployed(ctx, key.LatticeID, deployed); err != nil {
		log.Error(err, "failed to notify reconcilers of deploy")
		h.metrics.observe(verb, "publish_error", start)
		return DeployModelReply{Result: DeployError, Message: "deploy succeeded but notification failed, please retry"}
	}

	h.metrics.observe(verb, "acknowledged", start)
	return DeployModelReply{Result: DeployAcknowledged, DeployedVersion: sm.DeployedVersion}
}

// findProviderConflict builds existing_provider_refs from every OTHER
// deployed manifest in the lattice and checks staged's Capability
// components against it. Returns a human-readable conflict message, or
// "" if deployment may proceed. This is a snapshot read, not linearized
// with concurrent deploys elsewhere in the lattice; see §5.
func findProviderConflict(ctx context.Context, store ModelStore, key ModelKey, staged Manifest) string {
	summaries, err := store.List(ctx, key.AccountID, key.LatticeID)
	if err != nil {
		return ""
	}

	existing := make(map[string]struct {
		version string
		source  string
	})
	for _, s := range summaries {
		if s.Name == key.Name || s.DeployedVersion == "" {
			continue
		}
		other, _, ok, err := store.Get(ctx, ModelKey{AccountID: key.AccountID, LatticeID: key.LatticeID, Name: s.Name})
		if err != nil || !ok {
			continue
		}
		deployed, found := other.GetDeployed()
		if !found {
			continue
		}
		for _, c := range deployed.Spec.Components {
			if !c.Properties.IsCapability() {
				continue
			}
			ref, ok := parseImageRef(c.Properties.Image)
			if !ok {
				continue
			}
			existing[ref.Repository] = struct {
				version string
				source  string
			}{ref.Version, s.Name}
		}
	}

	for _, c := range staged.Spec.Components {
		if !c.Properties.IsCapability() {
			continue
		}
		ref, ok := parseImageRef(c.Properties.Image)
		if !ok {
			continue
		}
		if prior, found := existing[ref.Repository]; found && prior.version != ref.Version {
			return fmt.Sprintf("capability %s is already deployed with a different version in %s", ref.Repository, prior.source)
		}
	}
	return ""
}

// UndeployModel implements 4.7.7: clear the deployed pointer, and always
// re-emit the undeploy notification regardless of whether state changed,
// since loss of a prior notification must be tolerated.
func (h *RequestHandler) UndeployModel(ctx context.Context, key ModelKey) UndeployModelReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "undeploy_model", key)
	verb := "undeploy_model"

	sm, rev, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return UndeployModelReply{Result: DeployError, Message: ErrStorage.Error()}
	}
	if !ok {
		h.metrics.observe(verb, "not_found", start)
		return UndeployModelReply{Result: DeployNotFound, Message: fmt.Sprintf("model %s not found", key.Name)}
	}

	if sm.Undeploy() {
		if err := h.Store.Set(ctx, key, sm, rev); err != nil {
			log.Error(err, "store set failed")
			h.metrics.observe(verb, "error", start)
			return UndeployModelReply{Result: DeployError, Message: storeWriteErrorMessage(err)}
		}
	}

	if err := h.Notify.Undeployed(ctx, key.LatticeID, key.Name); err != nil {
		log.Error(err, "failed to notify reconcilers of undeploy")
		h.metrics.observe(verb, "publish_error", start)
		return UndeployModelReply{Result: DeployError, Message: "undeploy succeeded but notification failed, please retry"}
	}

	h.metrics.observe(verb, "acknowledged", start)
	return UndeployModelReply{Result: DeployAcknowledged}
}

// ModelStatus implements 4.7.8. The components field is always empty;
// see the StatusResponse.components open question in DESIGN.md.
func (h *RequestHandler) ModelStatus(ctx context.Context, key ModelKey) ModelStatusReply {
	start := time.Now()
	ctx, log := requestLogger(ctx, "model_status", key)
	verb := "model_status"

	sm, _, ok, err := h.Store.Get(ctx, key)
	if err != nil {
		log.Error(err, "store get failed")
		h.metrics.observe(verb, "error", start)
		return ModelStatusReply{Result: StatusResultError, Message: ErrStorage.Error()}
	}
	if !ok || sm.IsEmpty() {
		h.metrics.observe(verb, "not_found", start)
		return ModelStatusReply{Result: StatusResultNotFound, Message: fmt.Sprintf("model %s not found", key.Name)}
	}

	current := sm.GetCurrent()
	info := ReadStatus(ctx, h.Status, key.LatticeID, key.Name)
	h.metrics.observe(verb, "ok", start)
	return ModelStatusReply{
		Result:     StatusResultOk,
		Version:    current.Version,
		Info:       &info,
		Components: []any{},
	}
}

func storeWriteErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
