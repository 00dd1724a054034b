package scoreboards

import (
	"sync"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Scoreboard = (*MaxNormBoard)(nil)

// defaultCeiling is the score the leading team is rescaled to.
const defaultCeiling = 100.0

// MaxNormBoard linearly rescales raw team totals so the leading team sits
// exactly at the configured ceiling while every other team preserves its
// relative ratio. With no scores (or a non-positive leader) it returns an
// empty list instead of dividing by zero.
type MaxNormBoard struct {
	name    string
	pred    TaskPredicate
	ceiling float64

	mu       sync.RWMutex
	snapshot []ports.TaskScores
}

// NewMaxNormBoard creates a MaxNormBoard with the given ceiling;
// a non-positive ceiling falls back to 100.
func NewMaxNormBoard(name string, pred TaskPredicate, ceiling float64) *MaxNormBoard {
	if ceiling <= 0 {
		ceiling = defaultCeiling
	}
	return &MaxNormBoard{name: name, pred: pred, ceiling: ceiling}
}

// Name identifies the board.
func (b *MaxNormBoard) Name() string { return b.name }

// Update replaces the board's per-task snapshot wholesale.
func (b *MaxNormBoard) Update(tasks []ports.TaskScores) {
	filtered := filterTasks(tasks, b.pred)
	b.mu.Lock()
	b.snapshot = filtered
	b.mu.Unlock()
}

// Scores returns the rescaled entries in team order.
func (b *MaxNormBoard) Scores() []domain.ScoreEntry {
	b.mu.RLock()
	totals := sumByTeam(b.snapshot)
	b.mu.RUnlock()

	if len(totals) == 0 {
		return []domain.ScoreEntry{}
	}

	var maxTotal float64
	for _, total := range totals {
		if total > maxTotal {
			maxTotal = total
		}
	}
	if maxTotal <= 0 {
		// All teams at or below zero; nothing meaningful to normalize.
		return []domain.ScoreEntry{}
	}

	scale := b.ceiling / maxTotal
	normalized := make(map[domain.TeamID]float64, len(totals))
	for team, total := range totals {
		normalized[team] = total * scale
	}
	return sortedEntries(normalized)
}
