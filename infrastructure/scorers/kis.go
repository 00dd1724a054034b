package scorers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var (
	_ ports.IncrementalScorer   = (*KISScorer)(nil)
	_ ports.RecalculatingScorer = (*KISScorer)(nil)
)

// KISScorer scores known-item-search style tasks: each team earns points
// for its first correct submission, decaying with the number of decided
// attempts it took to get there.
//
// For a team whose decided submissions (CORRECT or WRONG, in arrival
// order) contain a first CORRECT one at index i submitted at time t:
//
//	score = max(0, end + (max-end)*timeFraction - penalty*(i+1))
//	timeFraction = (t - taskStart) / effectiveDuration
//
// Teams with no correct submission score 0. The scorer supports both
// families: Update folds submissions in one at a time without rescanning
// history, and ComputeScores recomputes the same result from scratch as a
// pure function of the submission set and score context.
type KISScorer struct {
	name   string
	config KISConfig

	mu     sync.RWMutex
	states map[domain.TeamID]*kisTeamState
	scores map[domain.TeamID]float64
}

// kisTeamState is the per-team incremental state: how many decided
// submissions have been seen and whether a correct one has landed yet.
type kisTeamState struct {
	decided      int
	foundCorrect bool
}

// KISConfig defines the point curve for a KIS task type.
type KISConfig struct {
	// MaxPoints is the ceiling of the time-dependent component.
	MaxPoints float64 `yaml:"max_points" json:"max_points" validate:"required,gt=0"`

	// EndPoints is the base of the time-dependent component.
	EndPoints float64 `yaml:"end_points" json:"end_points" validate:"min=0"`

	// PenaltyPerWrong is subtracted once per decided attempt up to and
	// including the first correct one.
	PenaltyPerWrong float64 `yaml:"penalty_per_wrong" json:"penalty_per_wrong" validate:"min=0"`
}

// NewKISScorer creates a KISScorer with validated configuration.
func NewKISScorer(name string, config KISConfig) (*KISScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &KISScorer{
		name:   name,
		config: config,
		states: make(map[domain.TeamID]*kisTeamState),
		scores: make(map[domain.TeamID]float64),
	}, nil
}

// Name returns the scorer's identifier.
func (s *KISScorer) Name() string { return s.name }

// Update folds one arriving submission into the scores. It never rescans
// history; at-most-once delivery per submission is the caller's contract.
func (s *KISScorer) Update(sub *domain.Submission, sctx ports.ScoreContext) {
	verdict := sub.Verdict()
	if !verdict.Decided() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sub.TeamID]
	if !ok {
		state = &kisTeamState{}
		s.states[sub.TeamID] = state
		s.scores[sub.TeamID] = 0
	}
	if state.foundCorrect {
		return
	}

	if verdict == domain.VerdictCorrect {
		state.foundCorrect = true
		s.scores[sub.TeamID] = s.pointsFor(state.decided, sub, sctx)
	}
	state.decided++
}

// ComputeScores recomputes all team scores from the full submission set.
// Input order does not matter: submissions are ordered by arrival time
// first, with their position in subs breaking timestamp ties, so the
// first-correct index reflects when answers arrived rather than when they
// were delivered. The incremental state is rebuilt from the same pass, so
// later Update calls continue from the recomputed history. Repeated calls
// with identical input yield bit-identical output.
func (s *KISScorer) ComputeScores(subs []*domain.Submission, sctx ports.ScoreContext) []domain.ScoreEntry {
	ordered := make([]*domain.Submission, len(subs))
	copy(ordered, subs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ArrivedAt.Before(ordered[j].ArrivedAt)
	})

	scores := make(map[domain.TeamID]float64)
	states := make(map[domain.TeamID]*kisTeamState)

	for _, sub := range ordered {
		verdict := sub.Verdict()
		if !verdict.Decided() {
			continue
		}
		state, ok := states[sub.TeamID]
		if !ok {
			state = &kisTeamState{}
			states[sub.TeamID] = state
			scores[sub.TeamID] = 0
		}
		if state.foundCorrect {
			continue
		}
		if verdict == domain.VerdictCorrect {
			state.foundCorrect = true
			scores[sub.TeamID] = s.pointsFor(state.decided, sub, sctx)
		}
		state.decided++
	}

	entries := sortedEntries(scores)

	s.mu.Lock()
	s.scores = scores
	s.states = states
	s.mu.Unlock()

	return entries
}

// pointsFor computes the score for a first correct submission that was the
// team's (indexOfFirstCorrect+1)-th decided attempt.
func (s *KISScorer) pointsFor(indexOfFirstCorrect int, sub *domain.Submission, sctx ports.ScoreContext) float64 {
	var timeFraction float64
	if sctx.EffectiveDuration > 0 {
		elapsed := sub.ArrivedAt.Sub(sctx.TaskStart)
		timeFraction = float64(elapsed) / float64(sctx.EffectiveDuration)
	}

	cfg := s.config
	score := cfg.EndPoints +
		(cfg.MaxPoints-cfg.EndPoints)*timeFraction -
		cfg.PenaltyPerWrong*float64(indexOfFirstCorrect+1)
	if score < 0 {
		return 0
	}
	return score
}

// Scores returns the latest per-team entries in team order.
func (s *KISScorer) Scores() []domain.ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedEntries(s.scores)
}

// DefaultKISConfig returns the standard KIS point curve:
// 100 points max, 50 at task end, 20 penalty per attempt.
func DefaultKISConfig() KISConfig {
	return KISConfig{
		MaxPoints:       100,
		EndPoints:       50,
		PenaltyPerWrong: 20,
	}
}

// NewKISFromConfig creates a KISScorer from a parameter map.
func NewKISFromConfig(name string, params map[string]any) (ports.Scorer, error) {
	cfg := DefaultKISConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewKISScorer(name, cfg)
}
