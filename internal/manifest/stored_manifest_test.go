// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(name, version string) Manifest {
	return Manifest{Metadata: Metadata{Name: name}, Version: version}
}

func TestStoredManifestAddVersion(t *testing.T) {
	t.Run("add to empty", func(t *testing.T) {
		sm := &StoredManifest{}
		assert.True(t, sm.AddVersion(v("app", "v1")))
		assert.Equal(t, 1, sm.Count())
	})

	t.Run("reject duplicate version", func(t *testing.T) {
		sm := &StoredManifest{}
		require.True(t, sm.AddVersion(v("app", "v1")))
		assert.False(t, sm.AddVersion(v("app", "v1")))
		assert.Equal(t, 1, sm.Count())
	})
}

func TestStoredManifestDeployUndeploy(t *testing.T) {
	t.Run("deploy latest resolves to current", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		sm.AddVersion(v("app", "v2"))
		assert.True(t, sm.Deploy(""))
		assert.Equal(t, "v2", sm.DeployedVersion)
	})

	t.Run("deploy explicit reserved latest literal", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		assert.True(t, sm.Deploy(LatestVersion))
		assert.Equal(t, "v1", sm.DeployedVersion)
	})

	t.Run("deploy missing version is a no-op", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		assert.False(t, sm.Deploy("v9"))
		assert.Empty(t, sm.DeployedVersion)
	})

	t.Run("undeploy reports whether state changed", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		sm.Deploy("v1")
		assert.True(t, sm.Undeploy())
		assert.False(t, sm.Undeploy())
		assert.Empty(t, sm.DeployedVersion)
	})
}

func TestStoredManifestDeleteVersion(t *testing.T) {
	t.Run("deleting deployed version clears pointer", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		sm.AddVersion(v("app", "v2"))
		sm.Deploy("v1")
		assert.True(t, sm.DeleteVersion("v1"))
		assert.Empty(t, sm.DeployedVersion)
		assert.Equal(t, 1, sm.Count())
	})

	t.Run("deleting last version empties the aggregate", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		assert.True(t, sm.DeleteVersion("v1"))
		assert.True(t, sm.IsEmpty())
	})

	t.Run("deleting unknown version is a no-op", func(t *testing.T) {
		sm := &StoredManifest{}
		sm.AddVersion(v("app", "v1"))
		assert.False(t, sm.DeleteVersion("v9"))
	})
}
