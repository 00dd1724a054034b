// Package filters provides the standard submission filters: pure
// predicates evaluated in configured order before validation, rejecting
// submissions with a reason instead of scoring them.
package filters

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Common errors returned by filter constructors.
var (
	// ErrEmptyFilterName is returned when a filter name is empty.
	ErrEmptyFilterName = errors.New("filter name cannot be empty")
)

// decodeParams converts a free-form parameter map into a typed config
// struct via a YAML round trip, then validates it. This is the boundary
// adapter used by every factory in the registry.
func decodeParams(params map[string]any, out any) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	return nil
}
