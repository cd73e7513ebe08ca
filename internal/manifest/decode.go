// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ContentTypeYAML is the request header value selecting the YAML decode
// path for put_model payloads; any other value (including absent)
// decodes as JSON.
const ContentTypeYAML = "application/yaml"

// DecodeManifest decodes a put_model payload as JSON or YAML, per
// contentType.
func DecodeManifest(payload []byte, contentType string) (Manifest, error) {
	var m Manifest
	var err error
	if contentType == ContentTypeYAML {
		err = yaml.Unmarshal(payload, &m)
	} else {
		err = json.Unmarshal(payload, &m)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return m, nil
}

func decodeJSON[T any](payload []byte) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return v, nil
}
