// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageRef(t *testing.T) {
	t.Run("simple ref", func(t *testing.T) {
		ref, ok := parseImageRef("ghcr.io/prov:1.0")
		require.True(t, ok)
		assert.Equal(t, "ghcr.io/prov", ref.Repository)
		assert.Equal(t, "1.0", ref.Version)
	})

	t.Run("no colon", func(t *testing.T) {
		_, ok := parseImageRef("ghcr.io/prov")
		assert.False(t, ok)
	})

	t.Run("registry port splits on first colon, by design", func(t *testing.T) {
		// See the parse_image_ref open question: this is a documented
		// quirk, not a bug this core works around.
		ref, ok := parseImageRef("host:5000/img:tag")
		require.True(t, ok)
		assert.Equal(t, "host", ref.Repository)
		assert.Equal(t, "5000/img:tag", ref.Version)
	})
}
