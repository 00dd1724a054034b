package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.SubmissionFilter = (*MinGapFilter)(nil)

// MinGapFilter enforces a minimum time gap between consecutive
// submissions of the same team, measured on arrival timestamps so the
// check stays deterministic under replay.
type MinGapFilter struct {
	name   string
	config MinGapConfig
}

// MinGapConfig defines the required inter-submission gap.
type MinGapConfig struct {
	// GapMS is the minimum number of milliseconds between two
	// submissions of the same team.
	GapMS int `yaml:"gap_ms" json:"gap_ms" validate:"required,min=1"`
}

// NewMinGapFilter creates a MinGapFilter with validated configuration.
func NewMinGapFilter(name string, config MinGapConfig) (*MinGapFilter, error) {
	if name == "" {
		return nil, ErrEmptyFilterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &MinGapFilter{name: name, config: config}, nil
}

// Name returns the filter's identifier.
func (f *MinGapFilter) Name() string { return f.name }

// Check rejects the submission if the team's most recent prior submission
// arrived less than the configured gap before it.
func (f *MinGapFilter) Check(ctx context.Context, sub *domain.Submission, task ports.TaskView) error {
	gap := time.Duration(f.config.GapMS) * time.Millisecond

	var last time.Time
	for _, prior := range task.Submissions() {
		if prior.TeamID != sub.TeamID || prior.ID == sub.ID {
			continue
		}
		if prior.ArrivedAt.After(last) {
			last = prior.ArrivedAt
		}
	}
	if last.IsZero() {
		return nil
	}
	if elapsed := sub.ArrivedAt.Sub(last); elapsed < gap {
		return ports.NewRejection(f.name,
			fmt.Sprintf("only %dms since last submission, %dms required",
				elapsed.Milliseconds(), gap.Milliseconds()))
	}
	return nil
}

// NewMinGapFromConfig creates a MinGapFilter from a parameter map.
func NewMinGapFromConfig(name string, params map[string]any) (ports.SubmissionFilter, error) {
	var cfg MinGapConfig
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewMinGapFilter(name, cfg)
}
