package filters

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.SubmissionFilter = (*RateLimitFilter)(nil)

// RateLimitFilter throttles live submission floods with a token-bucket
// limiter per team. Unlike MinGapFilter it runs on wall-clock time, which
// makes it suitable for protecting the intake path during a live run but
// not for deterministic replays.
type RateLimitFilter struct {
	name   string
	config RateLimitConfig

	mu       sync.Mutex
	limiters map[domain.TeamID]*rate.Limiter
}

// RateLimitConfig defines the per-team token bucket.
type RateLimitConfig struct {
	// PerSecond is the sustained submission rate allowed per team.
	PerSecond float64 `yaml:"per_second" json:"per_second" validate:"required,gt=0"`

	// Burst is the bucket size: how many submissions may arrive
	// back to back before throttling kicks in.
	Burst int `yaml:"burst" json:"burst" validate:"required,min=1"`
}

// NewRateLimitFilter creates a RateLimitFilter with validated configuration.
func NewRateLimitFilter(name string, config RateLimitConfig) (*RateLimitFilter, error) {
	if name == "" {
		return nil, ErrEmptyFilterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RateLimitFilter{
		name:     name,
		config:   config,
		limiters: make(map[domain.TeamID]*rate.Limiter),
	}, nil
}

// Name returns the filter's identifier.
func (f *RateLimitFilter) Name() string { return f.name }

// Check consumes one token from the submitting team's bucket, rejecting
// the submission when the bucket is empty.
func (f *RateLimitFilter) Check(ctx context.Context, sub *domain.Submission, task ports.TaskView) error {
	f.mu.Lock()
	limiter, ok := f.limiters[sub.TeamID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.config.PerSecond), f.config.Burst)
		f.limiters[sub.TeamID] = limiter
	}
	f.mu.Unlock()

	if !limiter.Allow() {
		return ports.NewRejection(f.name,
			fmt.Sprintf("team %s exceeded %.2f submissions/s", sub.TeamID, f.config.PerSecond))
	}
	return nil
}

// DefaultRateLimitConfig returns a RateLimitConfig allowing one
// submission per second with a small burst.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{PerSecond: 1, Burst: 3}
}

// NewRateLimitFromConfig creates a RateLimitFilter from a parameter map.
func NewRateLimitFromConfig(name string, params map[string]any) (ports.SubmissionFilter, error) {
	cfg := DefaultRateLimitConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewRateLimitFilter(name, cfg)
}
