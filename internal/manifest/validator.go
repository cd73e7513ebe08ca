// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
)

// ValidateManifest runs the six ordered checks of the manifest validator:
// schema, label/annotation grammar, component-name uniqueness, identifier
// uniqueness, per-component link-target uniqueness, and link target
// referential integrity. It stops and returns at the first failing check,
// wrapped in ErrValidation. Validation is pure and side-effect-free: the
// same manifest always yields the same result.
func ValidateManifest(m Manifest) error {
	if err := validateSchema(m); err != nil {
		return err
	}
	if err := validateLabelsAndAnnotations(m); err != nil {
		return err
	}
	if err := validateComponentNameUniqueness(m); err != nil {
		return err
	}
	if err := validateIdentifierUniqueness(m); err != nil {
		return err
	}
	if err := validateLinkTargetUniquenessPerComponent(m); err != nil {
		return err
	}
	if err := validateLinkTargetsExist(m); err != nil {
		return err
	}
	return nil
}

func validateSchema(m Manifest) error {
	schema, err := oamSchema()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal manifest for schema validation: %v", ErrValidation, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: failed to decode manifest for schema validation: %v", ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: schema validation: %v", ErrValidation, err)
	}
	return nil
}

func validateLabelsAndAnnotations(m Manifest) error {
	if err := requestValidator.Var(m.Metadata.Labels, "label_grammar"); err != nil {
		return fmt.Errorf("%w: invalid label key: %v", ErrValidation, err)
	}
	if err := requestValidator.Var(m.Metadata.Annotations, "label_grammar"); err != nil {
		return fmt.Errorf("%w: invalid annotation key: %v", ErrValidation, err)
	}
	return nil
}

func validateComponentNameUniqueness(m Manifest) error {
	seen := make(map[string]struct{}, len(m.Spec.Components))
	for _, c := range m.Spec.Components {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate component name %q", ErrValidation, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func validateIdentifierUniqueness(m Manifest) error {
	seen := make(map[string]struct{}, len(m.Spec.Components))
	for _, c := range m.Spec.Components {
		id := c.Properties.ID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate component/capability id %q", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateLinkTargetUniquenessPerComponent(m Manifest) error {
	for _, c := range m.Spec.Components {
		seen := make(map[string]struct{})
		for _, t := range c.Traits {
			if !t.IsLink() {
				continue
			}
			target := t.Properties.Target
			if _, ok := seen[target]; ok {
				return fmt.Errorf("%w: component %q has duplicate link target %q", ErrValidation, c.Name, target)
			}
			seen[target] = struct{}{}
		}
	}
	return nil
}

func validateLinkTargetsExist(m Manifest) error {
	names := make(map[string]struct{}, len(m.Spec.Components))
	for _, c := range m.Spec.Components {
		names[c.Name] = struct{}{}
	}
	targets := make(map[string]struct{})
	for _, c := range m.Spec.Components {
		for _, t := range c.Traits {
			if t.IsLink() {
				targets[t.Properties.Target] = struct{}{}
			}
		}
	}
	for target := range targets {
		if _, ok := names[target]; !ok {
			return fmt.Errorf("%w: link target %q does not match any component", ErrValidation, target)
		}
	}
	return nil
}
