// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidLabelKey(t *testing.T) {
	t.Run("bare name", func(t *testing.T) {
		assert.True(t, ValidLabelKey("app"))
		assert.True(t, ValidLabelKey("app.kubernetes.io"))
		assert.True(t, ValidLabelKey("app_name-1"))
	})

	t.Run("prefixed name", func(t *testing.T) {
		assert.True(t, ValidLabelKey("wadm.io/name"))
		assert.True(t, ValidLabelKey("a.b-c.io/x"))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.False(t, ValidLabelKey(""))
	})

	t.Run("name starting with punctuation", func(t *testing.T) {
		assert.False(t, ValidLabelKey("-app"))
		assert.False(t, ValidLabelKey(".app"))
	})

	t.Run("name ending with punctuation", func(t *testing.T) {
		assert.False(t, ValidLabelKey("app-"))
	})

	t.Run("prefix part starting with digit", func(t *testing.T) {
		assert.False(t, ValidLabelKey("1bad.io/name"))
	})

	t.Run("name too long", func(t *testing.T) {
		long := make([]byte, 64)
		for i := range long {
			long[i] = 'a'
		}
		assert.False(t, ValidLabelKey(string(long)))
	})

	t.Run("prefix too long", func(t *testing.T) {
		part := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		prefix := part
		for len(prefix) < 260 {
			prefix += "." + part
		}
		assert.False(t, ValidLabelKey(prefix+"/name"))
	})
}
