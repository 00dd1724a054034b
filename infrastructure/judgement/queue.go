// Package judgement implements the deferred-validation subsystem: a
// concurrent FIFO of submissions awaiting a verdict from a human judge or
// an audience vote, with token-based request/response correlation.
package judgement

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
	"github.com/ahrav/go-arena/pkg/logger"
)

var _ ports.JudgementService = (*Queue)(nil)

// ResolveFunc is invoked after a verdict is applied to a submission,
// outside the queue's critical section, so downstream score recalculation
// can run without holding the queue lock.
type ResolveFunc func(sub *domain.Submission, verdict domain.Verdict)

// pending is one submission moving through QUEUED -> DISPATCHED -> RESOLVED.
type pending struct {
	token      domain.JudgementToken
	sub        *domain.Submission
	enqueuedAt time.Time
	deadline   time.Time
}

// Queue is the judgement FIFO plus the awaiting-judge map, guarded by one
// mutex so the two can never disagree: a token in the awaiting map always
// references an item that has actually been removed from the FIFO.
// Critical sections are short; the resolve callback runs unlocked.
type Queue struct {
	name      string
	timeout   time.Duration
	onResolve ResolveFunc
	metrics   ports.MetricsCollector
	log       logger.Logger
	tracer    trace.Tracer

	mu       sync.Mutex
	fifo     []*pending
	awaiting map[domain.JudgementToken]*pending
	closed   bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithTimeout sets the verdict deadline measured from dispatch.
// A verdict arriving after the deadline is rejected and the submission is
// re-queued for another judge. Zero disables deadlines.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) { q.timeout = d }
}

// WithResolveCallback registers the downstream hook fired on each
// successful verdict.
func WithResolveCallback(fn ResolveFunc) Option {
	return func(q *Queue) { q.onResolve = fn }
}

// WithMetrics wires a metrics collector for pending-depth reporting.
func WithMetrics(m ports.MetricsCollector) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithLogger sets the queue's logger.
func WithLogger(l logger.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// NewQueue creates an empty judgement queue.
func NewQueue(name string, opts ...Option) *Queue {
	q := &Queue{
		name:     name,
		metrics:  ports.NopMetrics{},
		log:      logger.Nop(),
		tracer:   otel.Tracer("judgement-queue"),
		awaiting: make(map[domain.JudgementToken]*pending),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.log = q.log.Named("judgement")
	return q
}

// Enqueue appends the submission to the FIFO with a fresh correlation
// token and marks its verdict INDETERMINATE. Safe for concurrent
// producers.
func (q *Queue) Enqueue(ctx context.Context, sub *domain.Submission) (domain.JudgementToken, error) {
	_, span := q.tracer.Start(ctx, "Queue.Enqueue",
		trace.WithAttributes(attribute.String("queue", q.name)))
	defer span.End()

	sub.SetVerdict(domain.VerdictIndeterminate)
	item := &pending{
		token:      domain.NewJudgementToken(),
		sub:        sub,
		enqueuedAt: time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		span.RecordError(ports.ErrQueueClosed)
		return "", ports.ErrQueueClosed
	}
	q.fifo = append(q.fifo, item)
	depth := len(q.fifo) + len(q.awaiting)
	q.mu.Unlock()

	q.metrics.SetJudgementPending(depth)
	q.log.Debug(ctx, "submission enqueued for judgement",
		logger.String("submission", sub.ID.String()),
		logger.Int("pending", depth))
	return item.token, nil
}

// Next pops the FIFO head for the given judge, moving it to the awaiting
// map and stamping its deadline. It returns false when nothing is queued.
// Two concurrent callers can never receive the same head element.
func (q *Queue) Next(ctx context.Context, judgeID domain.MemberID) (*ports.JudgementRequest, bool) {
	_, span := q.tracer.Start(ctx, "Queue.Next",
		trace.WithAttributes(
			attribute.String("queue", q.name),
			attribute.String("judge", judgeID.String()),
		))
	defer span.End()

	q.mu.Lock()
	if q.closed || len(q.fifo) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	item := q.fifo[0]
	q.fifo = q.fifo[1:]
	if q.timeout > 0 {
		item.deadline = time.Now().Add(q.timeout)
	}
	q.awaiting[item.token] = item
	q.mu.Unlock()

	q.log.Debug(ctx, "submission dispatched to judge",
		logger.String("submission", item.sub.ID.String()),
		logger.String("judge", judgeID.String()))

	return &ports.JudgementRequest{
		Token:      item.token,
		Submission: item.sub,
		Deadline:   item.deadline,
	}, true
}

// Judge resolves an outstanding token with the given verdict.
// Unknown, already resolved, or invalidated tokens fail with
// *UnknownTokenError. A verdict past the token's deadline fails with
// ErrVerdictTimeout and the submission is re-queued untouched, so the
// audit trail can distinguish a late verdict from a successful one.
func (q *Queue) Judge(ctx context.Context, token domain.JudgementToken, verdict domain.Verdict) error {
	_, span := q.tracer.Start(ctx, "Queue.Judge",
		trace.WithAttributes(
			attribute.String("queue", q.name),
			attribute.String("verdict", verdict.String()),
		))
	defer span.End()

	q.mu.Lock()
	item, ok := q.awaiting[token]
	if !ok {
		q.mu.Unlock()
		err := &ports.UnknownTokenError{Token: token}
		span.RecordError(err)
		return err
	}
	if !item.deadline.IsZero() && time.Now().After(item.deadline) {
		// Late verdict: reject it and put the submission back in line
		// under a fresh token so another judge can pick it up. Once the
		// queue is closed no judge will ever pull again, so the item is
		// dropped instead of stranded in the FIFO.
		delete(q.awaiting, token)
		if !q.closed {
			item.token = domain.NewJudgementToken()
			item.deadline = time.Time{}
			q.fifo = append(q.fifo, item)
		}
		q.mu.Unlock()
		span.RecordError(ports.ErrVerdictTimeout)
		return ports.ErrVerdictTimeout
	}
	delete(q.awaiting, token)
	depth := len(q.fifo) + len(q.awaiting)
	q.mu.Unlock()

	item.sub.SetVerdict(verdict)
	q.metrics.SetJudgementPending(depth)
	q.log.Info(ctx, "submission judged",
		logger.String("submission", item.sub.ID.String()),
		logger.String("verdict", verdict.String()))

	if q.onResolve != nil {
		q.onResolve(item.sub, verdict)
	}
	return nil
}

// Invalidate withdraws an outstanding token: a later Judge call for it is
// rejected and the submission is dropped from the awaiting map.
// Invalidating an unknown token is a no-op.
func (q *Queue) Invalidate(token domain.JudgementToken) {
	q.mu.Lock()
	delete(q.awaiting, token)
	depth := len(q.fifo) + len(q.awaiting)
	q.mu.Unlock()
	q.metrics.SetJudgementPending(depth)
}

// Pending returns queued + awaiting-judge counts combined.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo) + len(q.awaiting)
}

// Close rejects further enqueues. Outstanding tokens stay judgeable so a
// run can drain in-flight judgements during teardown.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
