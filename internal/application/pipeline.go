package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Pipeline is the ordered filter chain plus the validator for one task
// type. Filters are pure predicates combined by logical AND in configured
// order, short-circuiting on the first rejection; the validator then
// classifies the surviving submission, either immediately or by deferring
// to the judgement subsystem.
type Pipeline struct {
	filters   []ports.SubmissionFilter
	validator ports.AnswerSetValidator
	tracer    trace.Tracer
}

// NewPipeline assembles a pipeline from its components.
func NewPipeline(filters []ports.SubmissionFilter, validator ports.AnswerSetValidator) *Pipeline {
	return &Pipeline{
		filters:   filters,
		validator: validator,
		tracer:    otel.Tracer("submission-pipeline"),
	}
}

// SubmissionResult is the outcome of processing one submission.
// Exactly one of Rejection, Deferred, or a final Verdict describes it.
type SubmissionResult struct {
	// Submission is the processed answer set; nil when rejected before
	// acceptance.
	Submission *domain.Submission

	// Rejection carries the filter rejection, nil if the submission was
	// accepted.
	Rejection *ports.RejectionError

	// Deferred reports that the verdict awaits a judgement.
	Deferred bool

	// Token correlates a deferred submission with its future verdict.
	Token domain.JudgementToken

	// Verdict is the immediate classification, meaningful only when the
	// submission was accepted and not deferred.
	Verdict domain.Verdict

	// Prolonged reports that the submission extended the task's
	// effective duration.
	Prolonged bool
}

// chainValidator conjoins several validators: every stage must classify
// the submission CORRECT for the chain to; the first non-CORRECT immediate
// verdict or the first deferral short-circuits. Task types combine, for
// example, an item match with a temporal overlap check this way.
type chainValidator struct {
	name   string
	stages []ports.AnswerSetValidator
}

func newChainValidator(stages []ports.AnswerSetValidator) *chainValidator {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return &chainValidator{name: strings.Join(names, "+"), stages: stages}
}

func (c *chainValidator) Name() string { return c.name }

func (c *chainValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	last := ports.Immediate(domain.VerdictCorrect)
	for _, stage := range c.stages {
		result, err := stage.Validate(ctx, sub, task)
		if err != nil {
			return ports.ValidationResult{}, err
		}
		if result.IsDeferred() {
			return result, nil
		}
		if verdict, ok := result.Verdict(); ok && verdict != domain.VerdictCorrect {
			return result, nil
		}
		last = result
	}
	return last, nil
}

// Process runs one submission through the task: the post-end guard, the
// filter chain, acceptance, validation, prolongation, and scoring.
// Processing is serialized per task so arrival order (ties broken by
// insertion order) is preserved for first-correct scoring semantics.
func (t *TaskRun) Process(ctx context.Context, sub *domain.Submission) (SubmissionResult, error) {
	ctx, span := t.pipeline.tracer.Start(ctx, "TaskRun.Process",
		trace.WithAttributes(
			attribute.String("task.id", t.id.String()),
			attribute.String("team.id", sub.TeamID.String()),
		))
	defer span.End()

	t.procMu.Lock()
	defer t.procMu.Unlock()

	// A submission arriving after end() has been recorded is rejected
	// here, before any filter or validator configuration can see it.
	if t.State() != TaskRunning {
		err := ports.NewIllegalRunState("submit", string(t.State()), domain.ErrRunNotRunning)
		span.RecordError(err)
		return SubmissionResult{}, err
	}

	for _, filter := range t.pipeline.filters {
		if err := filter.Check(ctx, sub, t); err != nil {
			if rej, ok := ports.IsRejection(err); ok {
				span.SetAttributes(attribute.String("rejection", rej.Reason))
				return SubmissionResult{Rejection: rej}, nil
			}
			return SubmissionResult{}, fmt.Errorf("filter %s: %w", filter.Name(), err)
		}
	}

	t.accept(sub)
	prolonged := t.maybeProlong(sub)

	result, err := t.pipeline.validator.Validate(ctx, sub, t)
	if err != nil {
		span.RecordError(err)
		return SubmissionResult{}, fmt.Errorf("validator %s: %w", t.pipeline.validator.Name(), err)
	}

	if token, ok := result.Token(); ok {
		return SubmissionResult{
			Submission: sub,
			Deferred:   true,
			Token:      token,
			Prolonged:  prolonged,
		}, nil
	}

	verdict, _ := result.Verdict()
	if verdict == "" {
		// An immediate result without a verdict means the validator broke
		// its contract.
		return SubmissionResult{}, errors.New("validator returned empty result")
	}

	t.rescore(sub)
	span.SetAttributes(attribute.String("verdict", verdict.String()))
	return SubmissionResult{
		Submission: sub,
		Verdict:    verdict,
		Prolonged:  prolonged,
	}, nil
}
