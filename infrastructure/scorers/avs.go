package scorers

import (
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.RecalculatingScorer = (*AVSScorer)(nil)

// avsScoreMultiplier scales each of the two score components so a team
// that finds everything alone and submits nothing wrong reaches 100.
const avsScoreMultiplier = 50.0

// AVSScorer scores ad-hoc-video-search style tasks by full recomputation:
//
//	score = 50 * (c/(c + w/2) + q/Q)
//
// where c and w are the team's correct and wrong submission counts, Q is
// the number of distinct correct ranges pooled across all teams, and q is
// the number of those ranges the team covered with at least one correct
// submission. Distinct ranges are computed per item by merging all correct
// submissions' temporal ranges with a configurable tolerance.
//
// With no correct submissions anywhere every team scores exactly 0; the
// division guards make NaN impossible.
type AVSScorer struct {
	name   string
	config AVSConfig

	mu     sync.RWMutex
	scores map[domain.TeamID]float64
}

// AVSConfig tunes the distinct-range pooling.
type AVSConfig struct {
	// ToleranceMS merges correct ranges per item whose gap is at most
	// this many milliseconds. The tolerance is applied per item, not
	// globally across items.
	ToleranceMS int `yaml:"tolerance_ms" json:"tolerance_ms" validate:"min=0"`
}

// NewAVSScorer creates an AVSScorer with validated configuration.
func NewAVSScorer(name string, config AVSConfig) (*AVSScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &AVSScorer{
		name:   name,
		config: config,
		scores: make(map[domain.TeamID]float64),
	}, nil
}

// Name returns the scorer's identifier.
func (s *AVSScorer) Name() string { return s.name }

// ComputeScores recomputes all team scores from the full submission set.
// It is a pure function of the input: repeated calls with an identical
// submission set yield bit-identical output.
func (s *AVSScorer) ComputeScores(subs []*domain.Submission, _ ports.ScoreContext) []domain.ScoreEntry {
	tolerance := time.Duration(s.config.ToleranceMS) * time.Millisecond

	type correctAnswer struct {
		team domain.TeamID
		rng  domain.TemporalRange
	}

	counts := make(map[domain.TeamID]*struct{ correct, wrong int })
	correctByItem := make(map[string][]correctAnswer)

	ensure := func(team domain.TeamID) *struct{ correct, wrong int } {
		c, ok := counts[team]
		if !ok {
			c = &struct{ correct, wrong int }{}
			counts[team] = c
		}
		return c
	}

	for _, sub := range subs {
		switch sub.Verdict() {
		case domain.VerdictCorrect:
			ensure(sub.TeamID).correct++
			ans := sub.Primary()
			rng := domain.TemporalRange{}
			if ans.HasRange() {
				rng = *ans.Range
			}
			correctByItem[ans.Item] = append(correctByItem[ans.Item], correctAnswer{
				team: sub.TeamID,
				rng:  rng,
			})
		case domain.VerdictWrong:
			ensure(sub.TeamID).wrong++
		}
	}

	// Pool distinct correct ranges per item, then credit each team with
	// the ranges one of its correct submissions falls inside.
	totalDistinct := 0
	distinctPerTeam := make(map[domain.TeamID]int)
	for item, answers := range correctByItem {
		ranges := make([]domain.TemporalRange, len(answers))
		for i, a := range answers {
			ranges[i] = a.rng
		}
		merged := domain.MergeRanges(ranges, tolerance)
		totalDistinct += len(merged)

		for _, m := range merged {
			credited := make(map[domain.TeamID]bool)
			for _, a := range correctByItem[item] {
				if credited[a.team] {
					continue
				}
				if m.Overlaps(a.rng) {
					credited[a.team] = true
					distinctPerTeam[a.team]++
				}
			}
		}
	}

	scores := make(map[domain.TeamID]float64)
	for team, c := range counts {
		var quantity, quality float64
		if c.correct > 0 {
			quantity = float64(c.correct) / (float64(c.correct) + float64(c.wrong)/2)
		}
		if totalDistinct > 0 {
			quality = float64(distinctPerTeam[team]) / float64(totalDistinct)
		}
		scores[team] = avsScoreMultiplier * (quantity + quality)
	}

	entries := sortedEntries(scores)

	s.mu.Lock()
	s.scores = scores
	s.mu.Unlock()

	return entries
}

// Scores returns the latest per-team entries in team order.
func (s *AVSScorer) Scores() []domain.ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedEntries(s.scores)
}

// DefaultAVSConfig returns an AVSConfig with a one-second merge tolerance.
func DefaultAVSConfig() AVSConfig {
	return AVSConfig{ToleranceMS: 1000}
}

// NewAVSFromConfig creates an AVSScorer from a parameter map.
func NewAVSFromConfig(name string, params map[string]any) (ports.Scorer, error) {
	cfg := DefaultAVSConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewAVSScorer(name, cfg)
}
