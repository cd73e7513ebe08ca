// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// requestValidator is a package-level singleton, the same pattern the
// teacher's manifest config package uses for its k8s_manifest tag: a
// validator.New() built once, with custom tags registered at init time.
var requestValidator = validator.New()

func init() {
	if err := requestValidator.RegisterValidation("label_grammar", validateLabelGrammarTag); err != nil {
		panic(fmt.Sprintf("failed to register label_grammar validator: %v", err))
	}
}

func validateLabelGrammarTag(fl validator.FieldLevel) bool {
	m, ok := fl.Field().Interface().(map[string]string)
	if !ok {
		return true
	}
	for k := range m {
		if !ValidLabelKey(k) {
			return false
		}
	}
	return true
}

// requestEnvelope is the struct-tag-validated shape of a request's
// addressing fields: a non-empty model name and, when supplied,
// well-formed labels/annotations. Dispatch checks it for every verb
// except put and list, supplying only the name; put_model's labels and
// annotations are checked by ManifestValidator instead.
type requestEnvelope struct {
	Name        string            `validate:"required"`
	Labels      map[string]string `validate:"label_grammar"`
	Annotations map[string]string `validate:"label_grammar"`
}

// validateRequestEnvelope runs go-playground/validator's struct tags
// over a request's addressing fields, ahead of any verb-specific logic.
func validateRequestEnvelope(key ModelKey, labels, annotations map[string]string) error {
	env := requestEnvelope{Name: key.Name, Labels: labels, Annotations: annotations}
	if err := requestValidator.Struct(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
