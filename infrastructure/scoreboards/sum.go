package scoreboards

import (
	"sync"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Scoreboard = (*SumBoard)(nil)

// SumBoard totals each team's scores across the tasks its predicate
// selects.
type SumBoard struct {
	name string
	pred TaskPredicate

	mu       sync.RWMutex
	snapshot []ports.TaskScores
}

// NewSumBoard creates a SumBoard. A nil predicate aggregates all tasks.
func NewSumBoard(name string, pred TaskPredicate) *SumBoard {
	return &SumBoard{name: name, pred: pred}
}

// Name identifies the board.
func (b *SumBoard) Name() string { return b.name }

// Update replaces the board's per-task snapshot wholesale.
func (b *SumBoard) Update(tasks []ports.TaskScores) {
	filtered := filterTasks(tasks, b.pred)
	b.mu.Lock()
	b.snapshot = filtered
	b.mu.Unlock()
}

// Scores returns each team's total across the snapshot, in team order.
func (b *SumBoard) Scores() []domain.ScoreEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sortedEntries(sumByTeam(b.snapshot))
}
