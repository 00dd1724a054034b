package validators

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var (
	_ ports.AnswerSetValidator = (*TemporalContainmentValidator)(nil)
	_ ports.AnswerSetValidator = (*TemporalOverlapValidator)(nil)
)

// TemporalConfig tunes the strictness of temporal matching.
type TemporalConfig struct {
	// ToleranceMS widens the target segment by this many milliseconds on
	// each side before matching.
	ToleranceMS int `yaml:"tolerance_ms" json:"tolerance_ms" validate:"min=0"`
}

func (c TemporalConfig) widened(segment domain.TemporalRange) domain.TemporalRange {
	tol := time.Duration(c.ToleranceMS) * time.Millisecond
	start := segment.Start - tol
	if start < 0 {
		start = 0
	}
	return domain.TemporalRange{Start: start, End: segment.End + tol}
}

// TemporalContainmentValidator classifies a submission CORRECT when one
// of its answers names the target item and its range lies entirely within
// the target segment. Answers without a range degrade to WRONG rather
// than failing the pipeline.
type TemporalContainmentValidator struct {
	name   string
	config TemporalConfig
}

// NewTemporalContainmentValidator creates a containment validator with
// validated configuration.
func NewTemporalContainmentValidator(name string, config TemporalConfig) (*TemporalContainmentValidator, error) {
	if name == "" {
		return nil, ErrEmptyValidatorName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TemporalContainmentValidator{name: name, config: config}, nil
}

// Name returns the validator's identifier.
func (v *TemporalContainmentValidator) Name() string { return v.name }

// Validate applies the containment rule: submission range ⊆ target segment.
func (v *TemporalContainmentValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	target, ok := task.Target().(domain.MediaSegmentTarget)
	if !ok {
		return ports.ValidationResult{}, unsupportedTarget(v.name, task.Target())
	}
	segment := v.config.widened(target.Segment)

	verdict := domain.VerdictWrong
	for _, ans := range sub.Answers {
		if ans.Item != target.Item || !ans.HasRange() {
			continue
		}
		if segment.ContainsRange(*ans.Range) {
			verdict = domain.VerdictCorrect
			break
		}
	}
	sub.SetVerdict(verdict)
	return ports.Immediate(verdict), nil
}

// TemporalOverlapValidator is the looser variant: any overlap between the
// answer's range and the target segment counts as CORRECT.
type TemporalOverlapValidator struct {
	name   string
	config TemporalConfig
}

// NewTemporalOverlapValidator creates an overlap validator with validated
// configuration.
func NewTemporalOverlapValidator(name string, config TemporalConfig) (*TemporalOverlapValidator, error) {
	if name == "" {
		return nil, ErrEmptyValidatorName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TemporalOverlapValidator{name: name, config: config}, nil
}

// Name returns the validator's identifier.
func (v *TemporalOverlapValidator) Name() string { return v.name }

// Validate applies the overlap rule: submission range ∩ target segment ≠ ∅.
func (v *TemporalOverlapValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	target, ok := task.Target().(domain.MediaSegmentTarget)
	if !ok {
		return ports.ValidationResult{}, unsupportedTarget(v.name, task.Target())
	}
	segment := v.config.widened(target.Segment)

	verdict := domain.VerdictWrong
	for _, ans := range sub.Answers {
		if ans.Item != target.Item || !ans.HasRange() {
			continue
		}
		if segment.Overlaps(*ans.Range) {
			verdict = domain.VerdictCorrect
			break
		}
	}
	sub.SetVerdict(verdict)
	return ports.Immediate(verdict), nil
}

// NewTemporalContainmentFromConfig creates a containment validator from a
// parameter map.
func NewTemporalContainmentFromConfig(name string, params map[string]any) (ports.AnswerSetValidator, error) {
	cfg := TemporalConfig{}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewTemporalContainmentValidator(name, cfg)
}

// NewTemporalOverlapFromConfig creates an overlap validator from a
// parameter map.
func NewTemporalOverlapFromConfig(name string, params map[string]any) (ports.AnswerSetValidator, error) {
	cfg := TemporalConfig{}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewTemporalOverlapValidator(name, cfg)
}
