package filters

import (
	"context"
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.SubmissionFilter = (*RequireRangeFilter)(nil)

// RequireRangeFilter rejects submissions whose answers lack a temporal
// range. Time-based task types configure it so that validators can assume
// every surviving answer carries a range.
type RequireRangeFilter struct {
	name   string
	config RequireRangeConfig
}

// RequireRangeConfig bounds the acceptable range length.
type RequireRangeConfig struct {
	// MaxDurationMS rejects ranges longer than this many milliseconds.
	// Zero disables the length check.
	MaxDurationMS int `yaml:"max_duration_ms" json:"max_duration_ms" validate:"min=0"`
}

// NewRequireRangeFilter creates a RequireRangeFilter with validated
// configuration.
func NewRequireRangeFilter(name string, config RequireRangeConfig) (*RequireRangeFilter, error) {
	if name == "" {
		return nil, ErrEmptyFilterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RequireRangeFilter{name: name, config: config}, nil
}

// Name returns the filter's identifier.
func (f *RequireRangeFilter) Name() string { return f.name }

// Check rejects the submission if any answer is missing a temporal range
// or exceeds the configured maximum length.
func (f *RequireRangeFilter) Check(ctx context.Context, sub *domain.Submission, task ports.TaskView) error {
	for i, ans := range sub.Answers {
		if !ans.HasRange() {
			return ports.NewRejection(f.name,
				fmt.Sprintf("answer %d for item %q has no temporal range", i, ans.Item))
		}
		if f.config.MaxDurationMS > 0 &&
			ans.Range.Duration().Milliseconds() > int64(f.config.MaxDurationMS) {
			return ports.NewRejection(f.name,
				fmt.Sprintf("range %s exceeds maximum of %dms",
					ans.Range, f.config.MaxDurationMS))
		}
	}
	return nil
}

// NewRequireRangeFromConfig creates a RequireRangeFilter from a
// parameter map.
func NewRequireRangeFromConfig(name string, params map[string]any) (ports.SubmissionFilter, error) {
	cfg := RequireRangeConfig{}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewRequireRangeFilter(name, cfg)
}
