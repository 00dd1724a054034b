package ports

import (
	"time"

	"github.com/ahrav/go-arena/internal/domain"
)

// ScoreContext carries the task parameters a recalculating scorer is a
// pure function of: the wall-clock start and the current effective
// duration (which may exceed the template default after prolongation).
type ScoreContext struct {
	TaskStart         time.Time
	EffectiveDuration time.Duration
}

// Scorer computes per-team scores for one task run.
// Scores always returns a freshly generated list; callers never observe
// in-place mutation of a previously returned slice.
type Scorer interface {
	Scores() []domain.ScoreEntry
}

// IncrementalScorer updates its scores submission by submission.
// Update must never rescan full history. At-most-once delivery per
// submission is the caller's contract; the scorer does not deduplicate.
type IncrementalScorer interface {
	Scorer

	// Update folds one arriving submission into the scores.
	Update(sub *domain.Submission, sctx ScoreContext)
}

// RecalculatingScorer recomputes scores from the full submission history.
// ComputeScores must be a deterministic pure function of its inputs:
// calling it twice with an identical submission set and context yields
// bit-identical output.
type RecalculatingScorer interface {
	Scorer

	// ComputeScores replaces the scorer's state with the result of a full
	// recomputation over subs and returns the new entries.
	ComputeScores(subs []*domain.Submission, sctx ScoreContext) []domain.ScoreEntry
}

// TaskScores is the per-task score snapshot a scoreboard aggregates:
// the task's identity, its template group, and the latest score entries.
type TaskScores struct {
	TaskID  domain.TaskRunID
	Group   string
	Entries []domain.ScoreEntry
}

// Scoreboard combines per-task scores into running totals per team.
// Update replaces the internal per-task snapshot wholesale so a scorer's
// internal state changing between calls cannot cause drift.
type Scoreboard interface {
	// Name identifies the board (e.g. "overall", "group:experts").
	Name() string

	// Update replaces the board's snapshot with the given task scores.
	// Boards apply their task-group filter themselves.
	Update(tasks []TaskScores)

	// Scores returns the latest aggregated entries.
	Scores() []domain.ScoreEntry
}
