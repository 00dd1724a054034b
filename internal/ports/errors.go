// Package ports defines the contracts between the run engine's core and
// the pluggable scoring, validation, and judgement components, as well as
// the collaborator surfaces (event sinks, metrics) the core depends on.
package ports

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
)

// Common errors surfaced by pipeline and judgement components.
var (
	// ErrVerdictTimeout indicates a verdict arrived after the deadline of
	// its judgement request. The verdict is rejected, not applied.
	ErrVerdictTimeout = errors.New("verdict arrived after deadline")

	// ErrVotingClosed indicates a vote arrived while no item is open for
	// voting. Late votes are rejected, never queued.
	ErrVotingClosed = errors.New("voting closed")

	// ErrQueueClosed indicates an operation on a judgement queue that has
	// been shut down.
	ErrQueueClosed = errors.New("judgement queue closed")
)

// RejectionError is the first-class result of a filter rejecting a
// submission before scoring. It is not a fault: the reason is returned to
// the submitter and recorded for audit.
type RejectionError struct {
	// Filter names the filter that rejected the submission.
	Filter string

	// Reason is the human-readable explanation returned to the submitter.
	Reason string
}

// Error implements the error interface for RejectionError.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("submission rejected by %s: %s", e.Filter, e.Reason)
}

// NewRejection creates a RejectionError with the given filter and reason.
func NewRejection(filter, reason string) *RejectionError {
	return &RejectionError{Filter: filter, Reason: reason}
}

// IsRejection reports whether err is a filter rejection and returns it.
func IsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IllegalRunStateError is a usage error: an illegal lifecycle transition
// such as starting a running task or ending a pending one. It is fatal to
// the caller and never retried internally.
type IllegalRunStateError struct {
	// Op is the attempted transition.
	Op string

	// State describes the state the target was actually in.
	State string

	// Err is the matching sentinel error for errors.Is checks.
	Err error
}

// Error implements the error interface for IllegalRunStateError.
func (e *IllegalRunStateError) Error() string {
	return fmt.Sprintf("illegal run state: op=%s, state=%s", e.Op, e.State)
}

// Unwrap returns the sentinel error describing the violation.
func (e *IllegalRunStateError) Unwrap() error { return e.Err }

// NewIllegalRunState creates an IllegalRunStateError for the given transition.
func NewIllegalRunState(op, state string, err error) *IllegalRunStateError {
	return &IllegalRunStateError{Op: op, State: state, Err: err}
}

// UnknownTokenError is a usage error: a judgement verdict referenced a
// token that was never issued, was already resolved, or was invalidated.
// Rejecting these protects against duplicate and stale judge responses.
type UnknownTokenError struct {
	Token domain.JudgementToken
}

// Error implements the error interface for UnknownTokenError.
func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown or resolved judgement token %q", e.Token)
}
