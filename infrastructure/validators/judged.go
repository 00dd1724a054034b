package validators

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.AnswerSetValidator = (*JudgedValidator)(nil)

// ErrNoJudgementService is returned when a judged task type is configured
// without a judgement service to defer to.
var ErrNoJudgementService = errors.New("judgement service not configured")

// JudgedValidator defers classification to the judgement subsystem.
// It enqueues the submission (leaving its verdict INDETERMINATE) and
// returns a Deferred result carrying the correlation token; the verdict
// arrives later through the judgement queue's resolution path.
type JudgedValidator struct {
	name    string
	service ports.JudgementService
}

// NewJudgedValidator creates a JudgedValidator backed by the given
// judgement service.
func NewJudgedValidator(name string, service ports.JudgementService) (*JudgedValidator, error) {
	if name == "" {
		return nil, ErrEmptyValidatorName
	}
	if service == nil {
		return nil, ErrNoJudgementService
	}
	return &JudgedValidator{name: name, service: service}, nil
}

// Name returns the validator's identifier.
func (v *JudgedValidator) Name() string { return v.name }

// Validate enqueues the submission for judging and defers the verdict.
func (v *JudgedValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	token, err := v.service.Enqueue(ctx, sub)
	if err != nil {
		return ports.ValidationResult{}, fmt.Errorf("enqueue for judgement: %w", err)
	}
	return ports.Deferred(token), nil
}
