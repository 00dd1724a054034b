package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.SubmissionFilter = (*DuplicateFilter)(nil)

// DuplicateFilter suppresses resubmission of an (item, range) or
// (item, text) pair a team has already submitted for the task.
// The second and later identical attempts are rejected; the first is not.
type DuplicateFilter struct {
	name   string
	config DuplicateConfig
}

// DuplicateConfig controls how close two ranges must be to count as the
// same answer.
type DuplicateConfig struct {
	// ToleranceMS treats ranges whose bounds differ by at most this many
	// milliseconds as identical. Zero requires exact equality.
	ToleranceMS int `yaml:"tolerance_ms" json:"tolerance_ms" validate:"min=0"`
}

// NewDuplicateFilter creates a DuplicateFilter with validated configuration.
func NewDuplicateFilter(name string, config DuplicateConfig) (*DuplicateFilter, error) {
	if name == "" {
		return nil, ErrEmptyFilterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &DuplicateFilter{name: name, config: config}, nil
}

// Name returns the filter's identifier.
func (f *DuplicateFilter) Name() string { return f.name }

// Check rejects the submission if the same team already submitted an
// answer for the same item with the same range (within tolerance) or the
// same text.
func (f *DuplicateFilter) Check(ctx context.Context, sub *domain.Submission, task ports.TaskView) error {
	tolerance := time.Duration(f.config.ToleranceMS) * time.Millisecond

	for _, prior := range task.Submissions() {
		if prior.TeamID != sub.TeamID || prior.ID == sub.ID {
			continue
		}
		for _, prev := range prior.Answers {
			for _, next := range sub.Answers {
				if f.sameAnswer(prev, next, tolerance) {
					return ports.NewRejection(f.name,
						fmt.Sprintf("duplicate submission for item %q", next.Item))
				}
			}
		}
	}
	return nil
}

func (f *DuplicateFilter) sameAnswer(a, b domain.Answer, tolerance time.Duration) bool {
	if a.Item != b.Item {
		return false
	}
	switch {
	case a.HasRange() && b.HasRange():
		return within(a.Range.Start, b.Range.Start, tolerance) &&
			within(a.Range.End, b.Range.End, tolerance)
	case !a.HasRange() && !b.HasRange():
		return a.Text == b.Text
	default:
		return false
	}
}

func within(a, b, tolerance time.Duration) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// DefaultDuplicateConfig returns a DuplicateConfig requiring exact matches.
func DefaultDuplicateConfig() DuplicateConfig {
	return DuplicateConfig{ToleranceMS: 0}
}

// NewDuplicateFromConfig creates a DuplicateFilter from a parameter map.
func NewDuplicateFromConfig(name string, params map[string]any) (ports.SubmissionFilter, error) {
	cfg := DefaultDuplicateConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewDuplicateFilter(name, cfg)
}
