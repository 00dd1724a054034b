// Package scoreboards provides the aggregation boards that combine
// per-task scores into running totals per team: plain sums, means across
// constituent boards, and max-normalized rescaling.
//
// Boards replace their per-task snapshot wholesale on every Update so a
// scorer's internal state changing between calls cannot cause drift.
package scoreboards

import (
	"sort"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// TaskPredicate selects which tasks a board aggregates.
// A nil predicate selects every task.
type TaskPredicate func(ports.TaskScores) bool

// GroupFilter returns a predicate selecting tasks belonging to any of the
// given template groups.
func GroupFilter(groups ...string) TaskPredicate {
	set := make(map[string]bool, len(groups))
	for _, g := range groups {
		set[g] = true
	}
	return func(t ports.TaskScores) bool { return set[t.Group] }
}

// filterTasks applies the predicate, copying entries so later scorer
// mutations cannot reach into the board's snapshot.
func filterTasks(tasks []ports.TaskScores, pred TaskPredicate) []ports.TaskScores {
	filtered := make([]ports.TaskScores, 0, len(tasks))
	for _, t := range tasks {
		if pred != nil && !pred(t) {
			continue
		}
		entries := make([]domain.ScoreEntry, len(t.Entries))
		copy(entries, t.Entries)
		filtered = append(filtered, ports.TaskScores{
			TaskID:  t.TaskID,
			Group:   t.Group,
			Entries: entries,
		})
	}
	return filtered
}

// sumByTeam totals the snapshot's entries per team.
func sumByTeam(tasks []ports.TaskScores) map[domain.TeamID]float64 {
	totals := make(map[domain.TeamID]float64)
	for _, t := range tasks {
		for _, e := range t.Entries {
			totals[e.TeamID] += e.Score
		}
	}
	return totals
}

// sortedEntries converts a team→score map into a slice ordered by team ID.
func sortedEntries(totals map[domain.TeamID]float64) []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(totals))
	for team, score := range totals {
		entries = append(entries, domain.ScoreEntry{TeamID: team, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TeamID < entries[j].TeamID })
	return entries
}
