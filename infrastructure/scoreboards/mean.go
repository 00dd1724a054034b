package scoreboards

import (
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Scoreboard = (*MeanBoard)(nil)

// MeanBoard averages per-team scores across its constituent boards.
// It is used to combine group boards into one figure per team: a team
// absent from a constituent contributes 0 for that board, keeping the
// denominator the number of constituents.
type MeanBoard struct {
	name   string
	boards []ports.Scoreboard
}

// NewMeanBoard creates a MeanBoard over the given constituent boards.
func NewMeanBoard(name string, boards ...ports.Scoreboard) *MeanBoard {
	return &MeanBoard{name: name, boards: boards}
}

// Name identifies the board.
func (b *MeanBoard) Name() string { return b.name }

// Update forwards the snapshot to every constituent board. Updates are
// wholesale replacements, so a constituent also updated directly by the
// orchestrator converges to the same state.
func (b *MeanBoard) Update(tasks []ports.TaskScores) {
	for _, board := range b.boards {
		board.Update(tasks)
	}
}

// Scores averages the constituents' current entries per team.
func (b *MeanBoard) Scores() []domain.ScoreEntry {
	if len(b.boards) == 0 {
		return []domain.ScoreEntry{}
	}

	totals := make(map[domain.TeamID]float64)
	for _, board := range b.boards {
		for _, e := range board.Scores() {
			totals[e.TeamID] += e.Score
		}
	}

	n := float64(len(b.boards))
	for team := range totals {
		totals[team] /= n
	}
	return sortedEntries(totals)
}
