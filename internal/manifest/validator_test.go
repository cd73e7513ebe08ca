// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() Manifest {
	return Manifest{
		Metadata: Metadata{Name: "app", Labels: map[string]string{"app.io/tier": "backend"}},
		Version:  "v1",
		Spec: Spec{
			Components: []Component{
				{
					Name:       "frontend",
					Properties: ComponentProp{Type: ComponentKindComponent, Image: "ghcr.io/acme/front:1.0"},
					Traits: []Trait{
						{Type: TraitKindLink, Properties: TraitProp{Target: "backend"}},
					},
				},
				{
					Name:       "backend",
					Properties: ComponentProp{Type: ComponentKindCapability, ID: "cap-1", Image: "ghcr.io/prov:1.0"},
				},
			},
		},
	}
}

func TestValidateManifest(t *testing.T) {
	t.Run("valid manifest passes", func(t *testing.T) {
		require.NoError(t, ValidateManifest(validManifest()))
	})

	t.Run("missing required schema field", func(t *testing.T) {
		m := validManifest()
		m.Metadata.Name = ""
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid label key", func(t *testing.T) {
		m := validManifest()
		m.Metadata.Labels = map[string]string{"-bad": "x"}
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid label key")
	})

	t.Run("duplicate component name", func(t *testing.T) {
		m := validManifest()
		m.Spec.Components[1].Name = "frontend"
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate component name")
	})

	t.Run("duplicate component id", func(t *testing.T) {
		m := validManifest()
		m.Spec.Components[0].Properties.ID = "dup"
		m.Spec.Components[1].Properties.ID = "dup"
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate component/capability id")
	})

	t.Run("duplicate link target within a component", func(t *testing.T) {
		m := validManifest()
		m.Spec.Components[0].Traits = append(m.Spec.Components[0].Traits,
			Trait{Type: TraitKindLink, Properties: TraitProp{Target: "backend"}})
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate link target")
	})

	t.Run("missing link target component", func(t *testing.T) {
		m := validManifest()
		m.Spec.Components[0].Traits[0].Properties.Target = "does-not-exist"
		err := ValidateManifest(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match any component")
	})

	t.Run("long image refs do not confuse schema validation", func(t *testing.T) {
		m := validManifest()
		m.Spec.Components[1].Properties.Image = "registry.example.com:5000/namespace/provider:1.2.3-rc.1"
		require.NoError(t, ValidateManifest(m))
	})
}
