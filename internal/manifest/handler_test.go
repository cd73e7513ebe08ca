// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rinswind/wadm-manifest-handler/internal/manifest"
	"github.com/rinswind/wadm-manifest-handler/internal/manifest/memstore"
)

func manifestPayload(name, version string, components ...manifest.Component) []byte {
	m := manifest.Manifest{
		Metadata: manifest.Metadata{Name: name},
		Version:  version,
		Spec:     manifest.Spec{Components: append([]manifest.Component{}, components...)},
	}
	raw, err := json.Marshal(m)
	Expect(err).NotTo(HaveOccurred())
	return raw
}

func capabilityComponent(name, image string) manifest.Component {
	return manifest.Component{
		Name:       name,
		Properties: manifest.ComponentProp{Type: manifest.ComponentKindCapability, Image: image},
	}
}

var _ = Describe("RequestHandler", func() {
	var (
		ctx      context.Context
		store    *memstore.Store
		statuses *memstore.StatusLog
		notifier *memstore.Notifier
		handler  *manifest.RequestHandler
		key      manifest.ModelKey
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memstore.NewStore()
		statuses = memstore.NewStatusLog()
		notifier = &memstore.Notifier{}
		handler = manifest.NewRequestHandler(store, statuses, notifier, prometheus.NewRegistry())
		key = manifest.ModelKey{LatticeID: "default", Name: "app"}
	})

	Describe("put-create", func() {
		It("creates a new model on first put", func() {
			reply := handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			Expect(reply.Result).To(Equal(manifest.PutCreated))
			Expect(reply.CurrentVersion).To(Equal("v1"))
			Expect(reply.TotalVersions).To(Equal(1))
		})
	})

	Describe("put-duplicate-version", func() {
		It("rejects re-putting the same version", func() {
			handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			reply := handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			Expect(reply.Result).To(Equal(manifest.PutError))
			Expect(reply.Message).To(ContainSubstring("Manifest version v1 already exists"))
		})
	})

	Describe("deploy cross-manifest conflict", func() {
		It("rejects a conflicting capability version across manifests", func() {
			aKey := manifest.ModelKey{LatticeID: "default", Name: "a"}
			bKey := manifest.ModelKey{LatticeID: "default", Name: "b"}

			handler.PutModel(ctx, aKey, manifestPayload("a", "v1", capabilityComponent("prov", "ghcr.io/prov:1.0")), "")
			deployA := handler.DeployModel(ctx, aKey, manifest.DeployModelRequest{})
			Expect(deployA.Result).To(Equal(manifest.DeployAcknowledged))

			handler.PutModel(ctx, bKey, manifestPayload("b", "v1", capabilityComponent("prov", "ghcr.io/prov:2.0")), "")
			deployB := handler.DeployModel(ctx, bKey, manifest.DeployModelRequest{})
			Expect(deployB.Result).To(Equal(manifest.DeployError))
			Expect(deployB.Message).To(ContainSubstring("already deployed with a different version in a"))
		})

		It("allows co-deploying the same capability version", func() {
			aKey := manifest.ModelKey{LatticeID: "default", Name: "a"}
			bKey := manifest.ModelKey{LatticeID: "default", Name: "b"}

			handler.PutModel(ctx, aKey, manifestPayload("a", "v1", capabilityComponent("prov", "ghcr.io/prov:1.0")), "")
			handler.DeployModel(ctx, aKey, manifest.DeployModelRequest{})

			handler.PutModel(ctx, bKey, manifestPayload("b", "v1", capabilityComponent("prov", "ghcr.io/prov:1.0")), "")
			deployB := handler.DeployModel(ctx, bKey, manifest.DeployModelRequest{})
			Expect(deployB.Result).To(Equal(manifest.DeployAcknowledged))
		})
	})

	Describe("delete-last-version cascades to undeploy", func() {
		It("deletes the model and emits exactly one undeploy notification", func() {
			handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			handler.DeployModel(ctx, key, manifest.DeployModelRequest{})

			reply := handler.DeleteModel(ctx, key, manifest.DeleteModelRequest{Version: "v1"})
			Expect(reply.Result).To(Equal(manifest.DeleteDeleted))
			Expect(reply.Undeploy).To(BeTrue())
			Expect(notifier.UndeployedCalls).To(Equal([]string{"app"}))

			_, _, ok, _ := store.Get(ctx, key)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("undeploy idempotent re-emit", func() {
		It("acknowledges and notifies on every call, even once already undeployed", func() {
			handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			handler.DeployModel(ctx, key, manifest.DeployModelRequest{})

			first := handler.UndeployModel(ctx, key)
			second := handler.UndeployModel(ctx, key)

			Expect(first.Result).To(Equal(manifest.DeployAcknowledged))
			Expect(second.Result).To(Equal(manifest.DeployAcknowledged))
			Expect(notifier.UndeployedCalls).To(HaveLen(2))
		})
	})

	Describe("name-grammar rejection", func() {
		It("rejects a name with invalid characters without mutating the store", func() {
			reply := handler.PutModel(ctx, key, manifestPayload("bad name!", "v1"), "")
			Expect(reply.Result).To(Equal(manifest.PutError))
			Expect(reply.Message).To(ContainSubstring("invalid characters"))

			_, _, ok, _ := store.Get(ctx, manifest.ModelKey{LatticeID: "default", Name: "bad name!"})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("publish failure after successful persistence", func() {
		It("surfaces an error reply while keeping the store write", func() {
			handler.PutModel(ctx, key, manifestPayload("app", "v1"), "")
			notifier.FailNext = true

			reply := handler.DeployModel(ctx, key, manifest.DeployModelRequest{})
			Expect(reply.Result).To(Equal(manifest.DeployError))
			Expect(reply.Message).To(ContainSubstring("retry"))

			sm, _, ok, _ := store.Get(ctx, key)
			Expect(ok).To(BeTrue())
			Expect(sm.DeployedVersion).To(Equal("v1"))
		})
	})
})
