// Package validators provides the standard answer-set validators:
// polymorphic correctness classifiers over task target types, plus the
// deferring validator that hands ambiguous submissions to the judgement
// subsystem.
package validators

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Common errors returned by validator constructors and Validate calls.
var (
	// ErrEmptyValidatorName is returned when a validator name is empty.
	ErrEmptyValidatorName = errors.New("validator name cannot be empty")

	// ErrUnsupportedTarget is returned when a validator is configured for
	// a task whose target kind it cannot classify.
	ErrUnsupportedTarget = errors.New("unsupported target kind")
)

// unsupportedTarget builds the error for a target kind the validator
// cannot handle. Hitting this at runtime means the task type wired the
// wrong validator; it is a configuration fault, not a wrong answer.
func unsupportedTarget(validatorName string, target domain.TaskTarget) error {
	return fmt.Errorf("%w: validator %s cannot classify %T", ErrUnsupportedTarget, validatorName, target)
}

// decodeParams converts a free-form parameter map into a typed config
// struct via a YAML round trip, then validates it.
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
