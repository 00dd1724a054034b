package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
)

// TaskView is the read-only view of a task run that filters, validators,
// and scorers operate against. Implementations must be safe for concurrent
// use; Submissions returns a snapshot, not a live slice.
type TaskView interface {
	// ID returns the task run's identifier.
	ID() domain.TaskRunID

	// Target returns the task's target description.
	Target() domain.TaskTarget

	// StartedAt returns the wall-clock start timestamp, false if the task
	// has not started yet.
	StartedAt() (time.Time, bool)

	// EffectiveDuration returns the current effective duration, including
	// any prolongation that has been applied.
	EffectiveDuration() time.Duration

	// Submissions returns a snapshot of all accepted submissions in
	// arrival order.
	Submissions() []*domain.Submission
}

// SubmissionFilter is a pure predicate evaluated before validation.
// A nil return accepts the submission; a *RejectionError return rejects it
// with a reason. Filters are combined by logical AND in configured order
// and short-circuit on the first rejection.
type SubmissionFilter interface {
	// Name returns the filter's identifier for audit and rejection reasons.
	Name() string

	// Check inspects the submission against the task view.
	// It must not mutate either.
	Check(ctx context.Context, sub *domain.Submission, task TaskView) error
}

// ValidationResult is the variant outcome of validating a submission:
// either an immediate verdict or a deferral to the judgement subsystem.
// The variant type forces the pipeline to branch explicitly instead of
// assuming synchronous resolution.
type ValidationResult struct {
	deferred bool
	verdict  domain.Verdict
	token    domain.JudgementToken
}

// Immediate wraps a synchronously decided verdict.
func Immediate(v domain.Verdict) ValidationResult {
	return ValidationResult{verdict: v}
}

// Deferred wraps a judgement token for a submission whose verdict will
// arrive asynchronously.
func Deferred(token domain.JudgementToken) ValidationResult {
	return ValidationResult{deferred: true, token: token}
}

// Verdict returns the immediate verdict, false if the result is deferred.
func (r ValidationResult) Verdict() (domain.Verdict, bool) {
	if r.deferred {
		return "", false
	}
	return r.verdict, true
}

// Token returns the judgement token, false if the result is immediate.
func (r ValidationResult) Token() (domain.JudgementToken, bool) {
	if !r.deferred {
		return "", false
	}
	return r.token, true
}

// IsDeferred reports whether the verdict is pending a judgement.
func (r ValidationResult) IsDeferred() bool { return r.deferred }

// AnswerSetValidator classifies a filtered submission against the task
// target. Implementations are polymorphic over the target type and must
// fail with a descriptive error on a target kind they do not support.
type AnswerSetValidator interface {
	// Name returns the validator's identifier.
	Name() string

	// Validate classifies the submission. Implementations either return
	// an Immediate result and set the submission's verdict themselves, or
	// return a Deferred result after handing the submission to the
	// judgement subsystem.
	Validate(ctx context.Context, sub *domain.Submission, task TaskView) (ValidationResult, error)
}
