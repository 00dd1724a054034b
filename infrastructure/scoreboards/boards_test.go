package scoreboards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

func taskScores(id domain.TaskRunID, group string, entries ...domain.ScoreEntry) ports.TaskScores {
	return ports.TaskScores{TaskID: id, Group: group, Entries: entries}
}

func entry(team domain.TeamID, score float64) domain.ScoreEntry {
	return domain.ScoreEntry{TeamID: team, Score: score}
}

func TestSumBoardTotalsAcrossTasks(t *testing.T) {
	board := NewSumBoard("overall", nil)
	board.Update([]ports.TaskScores{
		taskScores("t1", "kis", entry("team-a", 50), entry("team-b", 20)),
		taskScores("t2", "avs", entry("team-a", 30)),
	})

	assert.Equal(t, []domain.ScoreEntry{
		{TeamID: "team-a", Score: 80},
		{TeamID: "team-b", Score: 20},
	}, board.Scores())
}

func TestSumBoardGroupFilter(t *testing.T) {
	board := NewSumBoard("group:kis", GroupFilter("kis"))
	board.Update([]ports.TaskScores{
		taskScores("t1", "kis", entry("team-a", 50)),
		taskScores("t2", "avs", entry("team-a", 30)),
	})

	assert.Equal(t, []domain.ScoreEntry{{TeamID: "team-a", Score: 50}}, board.Scores())
}

func TestSumBoardUpdateReplacesSnapshot(t *testing.T) {
	board := NewSumBoard("overall", nil)
	board.Update([]ports.TaskScores{taskScores("t1", "", entry("team-a", 50))})
	board.Update([]ports.TaskScores{taskScores("t1", "", entry("team-a", 10))})

	// The second update replaces the first wholesale; totals never stack.
	assert.Equal(t, []domain.ScoreEntry{{TeamID: "team-a", Score: 10}}, board.Scores())
}

func TestMaxNormBoard(t *testing.T) {
	tests := []struct {
		name    string
		ceiling float64
		tasks   []ports.TaskScores
		want    []domain.ScoreEntry
	}{
		{
			name:    "leader pinned to ceiling, ratios preserved",
			ceiling: 100,
			tasks: []ports.TaskScores{
				taskScores("t1", "", entry("team-a", 40), entry("team-b", 20), entry("team-c", 10)),
			},
			want: []domain.ScoreEntry{
				{TeamID: "team-a", Score: 100},
				{TeamID: "team-b", Score: 50},
				{TeamID: "team-c", Score: 25},
			},
		},
		{
			name:    "custom ceiling",
			ceiling: 1000,
			tasks: []ports.TaskScores{
				taskScores("t1", "", entry("team-a", 5), entry("team-b", 1)),
			},
			want: []domain.ScoreEntry{
				{TeamID: "team-a", Score: 1000},
				{TeamID: "team-b", Score: 200},
			},
		},
		{
			name:    "empty input yields empty output",
			ceiling: 100,
			tasks:   nil,
			want:    []domain.ScoreEntry{},
		},
		{
			name:    "all-zero scores yield empty output",
			ceiling: 100,
			tasks: []ports.TaskScores{
				taskScores("t1", "", entry("team-a", 0), entry("team-b", 0)),
			},
			want: []domain.ScoreEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewMaxNormBoard("normalized", nil, tt.ceiling)
			board.Update(tt.tasks)
			assert.Equal(t, tt.want, board.Scores())
		})
	}
}

func TestMeanBoardAveragesConstituents(t *testing.T) {
	kis := NewSumBoard("group:kis", GroupFilter("kis"))
	avs := NewSumBoard("group:avs", GroupFilter("avs"))
	mean := NewMeanBoard("mean", kis, avs)

	mean.Update([]ports.TaskScores{
		taskScores("t1", "kis", entry("team-a", 80), entry("team-b", 40)),
		taskScores("t2", "avs", entry("team-a", 20)),
	})

	// team-a: (80+20)/2 = 50; team-b is absent from the avs board and
	// contributes 0 there: 40/2 = 20.
	assert.Equal(t, []domain.ScoreEntry{
		{TeamID: "team-a", Score: 50},
		{TeamID: "team-b", Score: 20},
	}, mean.Scores())
}

func TestMeanBoardForwardsUpdates(t *testing.T) {
	inner := NewSumBoard("inner", nil)
	mean := NewMeanBoard("mean", inner)

	mean.Update([]ports.TaskScores{taskScores("t1", "", entry("team-a", 60))})

	require.Equal(t, []domain.ScoreEntry{{TeamID: "team-a", Score: 60}}, inner.Scores())
	assert.Equal(t, []domain.ScoreEntry{{TeamID: "team-a", Score: 60}}, mean.Scores())
}

func TestFilterTasksCopiesEntries(t *testing.T) {
	source := taskScores("t1", "", entry("team-a", 10))
	board := NewSumBoard("overall", nil)
	board.Update([]ports.TaskScores{source})

	// Mutating the caller's slice after Update must not reach the board.
	source.Entries[0].Score = 999
	assert.Equal(t, []domain.ScoreEntry{{TeamID: "team-a", Score: 10}}, board.Scores())
}
