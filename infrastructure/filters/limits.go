package filters

import (
	"context"
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.SubmissionFilter = (*AttemptLimitFilter)(nil)

// AttemptLimitFilter caps how many submissions a team or member may make
// for one task, optionally distinguishing correct and wrong attempts.
// A limit of zero means unlimited.
type AttemptLimitFilter struct {
	name   string
	config AttemptLimitConfig
}

// AttemptLimitConfig defines the per-task attempt caps.
type AttemptLimitConfig struct {
	// MaxPerTeam caps total submissions per team.
	MaxPerTeam int `yaml:"max_per_team" json:"max_per_team" validate:"min=0"`

	// MaxPerMember caps total submissions per individual member.
	MaxPerMember int `yaml:"max_per_member" json:"max_per_member" validate:"min=0"`

	// MaxCorrectPerTeam caps submissions already judged CORRECT per team.
	// Once reached, further submissions are rejected.
	MaxCorrectPerTeam int `yaml:"max_correct_per_team" json:"max_correct_per_team" validate:"min=0"`

	// MaxWrongPerTeam caps submissions already judged WRONG per team.
	MaxWrongPerTeam int `yaml:"max_wrong_per_team" json:"max_wrong_per_team" validate:"min=0"`
}

// NewAttemptLimitFilter creates an AttemptLimitFilter with validated
// configuration.
func NewAttemptLimitFilter(name string, config AttemptLimitConfig) (*AttemptLimitFilter, error) {
	if name == "" {
		return nil, ErrEmptyFilterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &AttemptLimitFilter{name: name, config: config}, nil
}

// Name returns the filter's identifier.
func (f *AttemptLimitFilter) Name() string { return f.name }

// Check counts the team's and member's prior submissions and rejects the
// new one if any configured cap is already reached.
func (f *AttemptLimitFilter) Check(ctx context.Context, sub *domain.Submission, task ports.TaskView) error {
	var team, member, correct, wrong int
	for _, prior := range task.Submissions() {
		if prior.ID == sub.ID {
			continue
		}
		if prior.TeamID != sub.TeamID {
			continue
		}
		team++
		if prior.MemberID == sub.MemberID {
			member++
		}
		switch prior.Verdict() {
		case domain.VerdictCorrect:
			correct++
		case domain.VerdictWrong:
			wrong++
		}
	}

	cfg := f.config
	switch {
	case cfg.MaxPerTeam > 0 && team >= cfg.MaxPerTeam:
		return ports.NewRejection(f.name,
			fmt.Sprintf("team submission limit of %d reached", cfg.MaxPerTeam))
	case cfg.MaxPerMember > 0 && member >= cfg.MaxPerMember:
		return ports.NewRejection(f.name,
			fmt.Sprintf("member submission limit of %d reached", cfg.MaxPerMember))
	case cfg.MaxCorrectPerTeam > 0 && correct >= cfg.MaxCorrectPerTeam:
		return ports.NewRejection(f.name,
			fmt.Sprintf("team already has %d correct submissions", correct))
	case cfg.MaxWrongPerTeam > 0 && wrong >= cfg.MaxWrongPerTeam:
		return ports.NewRejection(f.name,
			fmt.Sprintf("team already has %d wrong submissions", wrong))
	}
	return nil
}

// DefaultAttemptLimitConfig returns an AttemptLimitConfig with all caps
// disabled.
func DefaultAttemptLimitConfig() AttemptLimitConfig { return AttemptLimitConfig{} }

// NewAttemptLimitFromConfig creates an AttemptLimitFilter from a
// parameter map.
func NewAttemptLimitFromConfig(name string, params map[string]any) (ports.SubmissionFilter, error) {
	cfg := DefaultAttemptLimitConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewAttemptLimitFilter(name, cfg)
}
