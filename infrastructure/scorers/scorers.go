// Package scorers provides the per-task-type scoring algorithms.
// Scorers come in two families: incremental (fold in one submission at a
// time) and recalculating (deterministic pure function over the full
// submission history). Both expose the same Scores() surface.
package scorers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Common errors returned by scorer constructors.
var (
	// ErrEmptyScorerName is returned when a scorer name is empty.
	ErrEmptyScorerName = errors.New("scorer name cannot be empty")
)

// decodeParams converts a free-form parameter map into a typed config
// struct via a YAML round trip, then validates it.
func decodeParams(params map[string]any, out any) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	return nil
}

// sortedEntries converts a team→score map into a slice ordered by team ID.
// The deterministic order makes repeated recomputations bit-identical and
// keeps scoreboard output stable.
func sortedEntries(scores map[domain.TeamID]float64) []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(scores))
	for team, score := range scores {
		entries = append(entries, domain.ScoreEntry{TeamID: team, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TeamID < entries[j].TeamID })
	return entries
}
