package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
)

// JudgementRequest correlates a pending submission with its single-use
// token. It exists only between dispatch to a judge and resolution (or
// abandonment) of the verdict.
type JudgementRequest struct {
	// Token is the opaque, single-use correlation token.
	Token domain.JudgementToken

	// Submission is the answer set awaiting a verdict.
	Submission *domain.Submission

	// Deadline, if non-zero, is the instant after which a verdict for
	// this token is rejected as timed out.
	Deadline time.Time
}

// JudgementService defers verdict classification to a human judge or an
// audience vote. Implementations are safe for concurrent producers and
// consumers; pending (= queued + awaiting a judge) is observable without
// blocking enqueuers.
type JudgementService interface {
	// Enqueue appends the submission to the pending queue under a fresh
	// correlation token and marks its verdict INDETERMINATE.
	Enqueue(ctx context.Context, sub *domain.Submission) (domain.JudgementToken, error)

	// Next pops the queue head for the given judge, stamping its verdict
	// deadline; the returned request carries the token minted at Enqueue.
	// It returns false if nothing is pending. The same head element is
	// never handed to two concurrent callers.
	Next(ctx context.Context, judgeID domain.MemberID) (*JudgementRequest, bool)

	// Judge resolves the token with the given verdict. Unknown, already
	// resolved, or invalidated tokens fail with *UnknownTokenError; a
	// verdict past its deadline fails with ErrVerdictTimeout.
	Judge(ctx context.Context, token domain.JudgementToken, verdict domain.Verdict) error

	// Invalidate withdraws an outstanding token so a later Judge call for
	// it is rejected. Invalidating an unknown token is a no-op.
	Invalidate(token domain.JudgementToken)

	// Pending returns queued + awaiting-judge counts combined.
	Pending() int
}

// RunEventKind enumerates the observable transitions the engine emits.
type RunEventKind string

// Observable run transitions.
const (
	EventEvaluationStarted    RunEventKind = "evaluation_started"
	EventEvaluationEnded      RunEventKind = "evaluation_ended"
	EventTaskPrepared         RunEventKind = "task_prepared"
	EventTaskStarted          RunEventKind = "task_started"
	EventTaskUpdated          RunEventKind = "task_updated"
	EventTaskEnded            RunEventKind = "task_ended"
	EventSubmissionAccepted   RunEventKind = "submission_accepted"
	EventSubmissionJudged     RunEventKind = "submission_judged"
	EventScoreboardsRefreshed RunEventKind = "scoreboards_refreshed"
)

// RunEvent is a fire-and-forget notification of one observable transition.
// Delivery is at-least-once; the engine does not wait for acknowledgement.
type RunEvent struct {
	Kind         RunEventKind
	EvaluationID domain.EvaluationID
	TaskID       domain.TaskRunID
	Timestamp    time.Time
}

// RunEventSink receives run events. Notify must not block; slow sinks are
// expected to buffer or drop internally.
type RunEventSink interface {
	Notify(event RunEvent)
}

// MetricsCollector abstracts the metrics backend so the engine core stays
// free of instrumentation dependencies.
type MetricsCollector interface {
	// RecordSubmission counts one processed submission by outcome
	// ("accepted", "rejected", "deferred", "no_task").
	RecordSubmission(outcome string)

	// SetJudgementPending reports the current pending judgement count.
	SetJudgementPending(n int)

	// RecordScoringLatency records the duration of one scoring pass.
	RecordScoringLatency(d time.Duration)

	// RecordRunEvent counts one emitted run event by kind.
	RecordRunEvent(kind RunEventKind)
}

// NopMetrics is a MetricsCollector that discards everything.
// It keeps metrics optional in tests and embedded uses.
type NopMetrics struct{}

func (NopMetrics) RecordSubmission(string)              {}
func (NopMetrics) SetJudgementPending(int)              {}
func (NopMetrics) RecordScoringLatency(time.Duration)   {}
func (NopMetrics) RecordRunEvent(RunEventKind)          {}
