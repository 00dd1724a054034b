package domain

import (
	"sync"
	"time"
)

// Answer is a single candidate answer inside a submission.
// It references a media item and carries either free text or a temporal
// range into the item. Exactly one of Text and Range is expected to be
// meaningful for a given task type.
type Answer struct {
	// Item references the media item the answer points at.
	Item string `json:"item"`

	// Text is a free-text answer, used by textual task targets.
	Text string `json:"text,omitempty"`

	// Range is the temporal region of the item the answer claims,
	// nil for answers without a temporal component.
	Range *TemporalRange `json:"range,omitempty"`
}

// HasRange reports whether the answer carries a temporal range.
func (a Answer) HasRange() bool { return a.Range != nil }

// Submission is one team's attempted answer set for the active task.
// All fields except the verdict are immutable facts recorded at arrival.
// The verdict is the only mutable field; it is guarded by a per-submission
// mutex so that a validator and a judgement resolution can never race on
// the same submission.
type Submission struct {
	ID        SubmissionID `json:"id"`
	TeamID    TeamID       `json:"team_id"`
	MemberID  MemberID     `json:"member_id"`
	ArrivedAt time.Time    `json:"arrived_at"`
	Answers   []Answer     `json:"answers"`

	mu      sync.RWMutex
	verdict Verdict
}

// NewSubmission records an arriving answer set with an INDETERMINATE verdict.
func NewSubmission(team TeamID, member MemberID, arrivedAt time.Time, answers []Answer) *Submission {
	return &Submission{
		ID:        NewSubmissionID(),
		TeamID:    team,
		MemberID:  member,
		ArrivedAt: arrivedAt,
		Answers:   answers,
		verdict:   VerdictIndeterminate,
	}
}

// Verdict returns the current verdict.
func (s *Submission) Verdict() Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verdict
}

// SetVerdict records the verdict for this submission.
// Callers are the validation pipeline and judgement resolution; the engine
// guarantees at most one of them writes a final verdict.
func (s *Submission) SetVerdict(v Verdict) {
	s.mu.Lock()
	s.verdict = v
	s.mu.Unlock()
}

// Primary returns the first answer of the set.
// Single-answer submissions are the common case; scorers and validators
// that only support one answer per submission use this accessor.
func (s *Submission) Primary() Answer {
	if len(s.Answers) == 0 {
		return Answer{}
	}
	return s.Answers[0]
}

// ScoreEntry is a (team, score) snapshot produced by a scorer or a
// scoreboard. Entries are recomputed wholesale, never mutated in place.
type ScoreEntry struct {
	TeamID TeamID  `json:"team_id"`
	Score  float64 `json:"score"`
}
