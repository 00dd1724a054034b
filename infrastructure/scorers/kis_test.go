package scorers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

func decidedSub(team domain.TeamID, verdict domain.Verdict, at time.Time) *domain.Submission {
	sub := domain.NewSubmission(team, "m1", at, []domain.Answer{{Item: "v001"}})
	sub.SetVerdict(verdict)
	return sub
}

func scoreFor(entries []domain.ScoreEntry, team domain.TeamID) (float64, bool) {
	for _, e := range entries {
		if e.TeamID == team {
			return e.Score, true
		}
	}
	return 0, false
}

// Reference case: a 300s task, one wrong submission at +10s and a correct
// one at +60s yields max(0, 50 + 50*(60/300) - 20*2) = 20.
func TestKISScorerReferenceCase(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	subs := []*domain.Submission{
		decidedSub("team-a", domain.VerdictWrong, start.Add(10*time.Second)),
		decidedSub("team-a", domain.VerdictCorrect, start.Add(60*time.Second)),
	}

	t.Run("recalculating", func(t *testing.T) {
		scorer, err := NewKISScorer("kis", DefaultKISConfig())
		require.NoError(t, err)

		entries := scorer.ComputeScores(subs, sctx)
		score, ok := scoreFor(entries, "team-a")
		require.True(t, ok)
		assert.InDelta(t, 20.0, score, 1e-9)
	})

	t.Run("incremental", func(t *testing.T) {
		scorer, err := NewKISScorer("kis", DefaultKISConfig())
		require.NoError(t, err)

		for _, sub := range subs {
			scorer.Update(sub, sctx)
		}
		score, ok := scoreFor(scorer.Scores(), "team-a")
		require.True(t, ok)
		assert.InDelta(t, 20.0, score, 1e-9)
	})
}

// Out-of-order delivery: the correct submission is listed first but
// arrived after the wrong one, so the wrong attempt must still count
// toward the penalty.
func TestKISScorerComputeScoresOrdersByArrival(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	entries := scorer.ComputeScores([]*domain.Submission{
		decidedSub("team-a", domain.VerdictCorrect, start.Add(60*time.Second)),
		decidedSub("team-a", domain.VerdictWrong, start.Add(10*time.Second)),
	}, sctx)

	score, ok := scoreFor(entries, "team-a")
	require.True(t, ok)
	// Same outcome as the reference case: 50 + 50*(60/300) - 20*2 = 20.
	assert.InDelta(t, 20.0, score, 1e-9)
}

func TestKISScorerNoCorrectScoresZero(t *testing.T) {
	start := time.Now()
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	entries := scorer.ComputeScores([]*domain.Submission{
		decidedSub("team-a", domain.VerdictWrong, start.Add(10*time.Second)),
		decidedSub("team-a", domain.VerdictWrong, start.Add(20*time.Second)),
	}, sctx)

	score, ok := scoreFor(entries, "team-a")
	require.True(t, ok)
	assert.Zero(t, score)
}

func TestKISScorerPenaltyFloorsAtZero(t *testing.T) {
	start := time.Now()
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	// Four wrong attempts before the correct one: 50 + ~0 - 20*5 < 0.
	subs := make([]*domain.Submission, 0, 5)
	for i := 0; i < 4; i++ {
		subs = append(subs, decidedSub("team-a", domain.VerdictWrong, start.Add(time.Second)))
	}
	subs = append(subs, decidedSub("team-a", domain.VerdictCorrect, start.Add(2*time.Second)))

	entries := scorer.ComputeScores(subs, sctx)
	score, ok := scoreFor(entries, "team-a")
	require.True(t, ok)
	assert.Zero(t, score)
}

func TestKISScorerIgnoresUndecidedSubmissions(t *testing.T) {
	start := time.Now()
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	// The undecidable and indeterminate submissions must not count as
	// attempts: the correct one is the first decided attempt.
	entries := scorer.ComputeScores([]*domain.Submission{
		decidedSub("team-a", domain.VerdictUndecidable, start.Add(5*time.Second)),
		decidedSub("team-a", domain.VerdictIndeterminate, start.Add(6*time.Second)),
		decidedSub("team-a", domain.VerdictCorrect, start.Add(30*time.Second)),
	}, sctx)

	score, ok := scoreFor(entries, "team-a")
	require.True(t, ok)
	// 50 + 50*(30/300) - 20*1 = 35.
	assert.InDelta(t, 35.0, score, 1e-9)
}

func TestKISScorerLaterCorrectDoesNotOverwrite(t *testing.T) {
	start := time.Now()
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	scorer.Update(decidedSub("team-a", domain.VerdictCorrect, start.Add(30*time.Second)), sctx)
	first, _ := scoreFor(scorer.Scores(), "team-a")

	scorer.Update(decidedSub("team-a", domain.VerdictCorrect, start.Add(200*time.Second)), sctx)
	second, _ := scoreFor(scorer.Scores(), "team-a")

	assert.Equal(t, first, second)
}

func TestKISScorerRepeatedRecomputationIsStable(t *testing.T) {
	start := time.Now()
	sctx := ports.ScoreContext{TaskStart: start, EffectiveDuration: 300 * time.Second}
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	subs := []*domain.Submission{
		decidedSub("team-a", domain.VerdictWrong, start.Add(10*time.Second)),
		decidedSub("team-a", domain.VerdictCorrect, start.Add(60*time.Second)),
		decidedSub("team-b", domain.VerdictCorrect, start.Add(90*time.Second)),
	}

	first := scorer.ComputeScores(subs, sctx)
	second := scorer.ComputeScores(subs, sctx)
	assert.Equal(t, first, second)
}

func TestKISScorerZeroDurationGuard(t *testing.T) {
	start := time.Now()
	scorer, err := NewKISScorer("kis", DefaultKISConfig())
	require.NoError(t, err)

	entries := scorer.ComputeScores([]*domain.Submission{
		decidedSub("team-a", domain.VerdictCorrect, start.Add(time.Second)),
	}, ports.ScoreContext{TaskStart: start})

	score, ok := scoreFor(entries, "team-a")
	require.True(t, ok)
	// Degrades to the end-points base minus one attempt penalty, no NaN.
	assert.InDelta(t, 30.0, score, 1e-9)
}
