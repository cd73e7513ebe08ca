// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// oamSchemaDoc is the Draft7 JSON Schema every manifest must satisfy
// before any of the structural checks in ManifestValidator run.
const oamSchemaDoc = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://wadm.local/schemas/oam-manifest.json",
  "type": "object",
  "required": ["metadata", "version", "spec"],
  "properties": {
    "metadata": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "labels": {"type": "object", "additionalProperties": {"type": "string"}},
        "annotations": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    },
    "version": {"type": "string", "minLength": 1},
    "spec": {
      "type": "object",
      "required": ["components"],
      "properties": {
        "components": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "properties"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "properties": {
                "type": "object",
                "required": ["type", "image"],
                "properties": {
                  "type": {"enum": ["component", "capability"]},
                  "id": {"type": "string"},
                  "image": {"type": "string", "minLength": 1}
                }
              },
              "traits": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["type", "properties"],
                  "properties": {
                    "type": {"type": "string"},
                    "properties": {"type": "object"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

const oamSchemaID = "https://wadm.local/schemas/oam-manifest.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(oamSchemaDoc))
	if err != nil {
		return nil, fmt.Errorf("failed to load OAM manifest schema: %w", err)
	}
	if err := compiler.AddResource(oamSchemaID, doc); err != nil {
		return nil, fmt.Errorf("failed to load OAM manifest schema: %w", err)
	}
	schema, err := compiler.Compile(oamSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile OAM manifest schema: %w", err)
	}
	return schema, nil
})

// oamSchema returns the process-wide compiled schema, initializing it
// exactly once. Concurrent first callers race harmlessly: sync.OnceValues
// guarantees a single compile and a shared result for every caller.
func oamSchema() (*jsonschema.Schema, error) {
	return compiledSchema()
}
