// Package domain contains pure, dependency-light domain models and types
// for the competition run engine.
package domain

import "github.com/google/uuid"

// EvaluationID uniquely identifies one evaluation run of a competition.
// The newtype prevents accidental mixing with task, team, or submission IDs.
type EvaluationID string

// TaskRunID uniquely identifies one timed task instance within an evaluation.
type TaskRunID string

// TeamID uniquely identifies a participating team.
type TeamID string

// MemberID uniquely identifies an individual team member.
type MemberID string

// SubmissionID uniquely identifies an accepted submission.
type SubmissionID string

// JudgementToken is a single-use, opaque token correlating a dispatched
// judgement request with the verdict that resolves it.
type JudgementToken string

// NewEvaluationID returns a fresh random EvaluationID.
func NewEvaluationID() EvaluationID { return EvaluationID(uuid.NewString()) }

// NewTaskRunID returns a fresh random TaskRunID.
func NewTaskRunID() TaskRunID { return TaskRunID(uuid.NewString()) }

// NewSubmissionID returns a fresh random SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.NewString()) }

// NewJudgementToken mints a fresh single-use judgement token.
func NewJudgementToken() JudgementToken { return JudgementToken(uuid.NewString()) }

// IsZero reports whether the ID is unset.
func (id EvaluationID) IsZero() bool { return id == "" }

// IsZero reports whether the ID is unset.
func (id TaskRunID) IsZero() bool { return id == "" }

// IsZero reports whether the ID is unset.
func (id TeamID) IsZero() bool { return id == "" }

// IsZero reports whether the ID is unset.
func (id MemberID) IsZero() bool { return id == "" }

// IsZero reports whether the ID is unset.
func (id SubmissionID) IsZero() bool { return id == "" }

// IsZero reports whether the token is unset.
func (t JudgementToken) IsZero() bool { return t == "" }

func (id EvaluationID) String() string   { return string(id) }
func (id TaskRunID) String() string      { return string(id) }
func (id TeamID) String() string         { return string(id) }
func (id MemberID) String() string       { return string(id) }
func (id SubmissionID) String() string   { return string(id) }
func (t JudgementToken) String() string  { return string(t) }
