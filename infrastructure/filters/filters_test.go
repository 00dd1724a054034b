package filters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// taskStub is a minimal TaskView for filter tests.
type taskStub struct {
	id        domain.TaskRunID
	target    domain.TaskTarget
	startedAt time.Time
	duration  time.Duration
	subs      []*domain.Submission
}

func (t *taskStub) ID() domain.TaskRunID                 { return t.id }
func (t *taskStub) Target() domain.TaskTarget            { return t.target }
func (t *taskStub) StartedAt() (time.Time, bool)         { return t.startedAt, !t.startedAt.IsZero() }
func (t *taskStub) EffectiveDuration() time.Duration     { return t.duration }
func (t *taskStub) Submissions() []*domain.Submission    { return t.subs }

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func rangedSub(team domain.TeamID, item string, start, end int64, at time.Time) *domain.Submission {
	r := domain.TemporalRange{Start: ms(start), End: ms(end)}
	return domain.NewSubmission(team, "m1", at, []domain.Answer{{Item: item, Range: &r}})
}

func TestDuplicateFilter(t *testing.T) {
	base := time.Now()
	prior := rangedSub("team-a", "v001", 1000, 2000, base)
	task := &taskStub{subs: []*domain.Submission{prior}}

	filter, err := NewDuplicateFilter("duplicate", DuplicateConfig{ToleranceMS: 100})
	require.NoError(t, err)

	tests := []struct {
		name     string
		sub      *domain.Submission
		rejected bool
	}{
		{
			name:     "identical resubmission rejected",
			sub:      rangedSub("team-a", "v001", 1000, 2000, base.Add(time.Second)),
			rejected: true,
		},
		{
			name:     "within tolerance rejected",
			sub:      rangedSub("team-a", "v001", 1050, 2050, base.Add(time.Second)),
			rejected: true,
		},
		{
			name:     "beyond tolerance accepted",
			sub:      rangedSub("team-a", "v001", 1200, 2200, base.Add(time.Second)),
			rejected: false,
		},
		{
			name:     "different item accepted",
			sub:      rangedSub("team-a", "v002", 1000, 2000, base.Add(time.Second)),
			rejected: false,
		},
		{
			name:     "other team accepted",
			sub:      rangedSub("team-b", "v001", 1000, 2000, base.Add(time.Second)),
			rejected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := filter.Check(context.Background(), tt.sub, task)
			if tt.rejected {
				rej, ok := ports.IsRejection(err)
				require.True(t, ok, "expected a rejection, got %v", err)
				assert.Equal(t, "duplicate", rej.Filter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDuplicateFilterTextAnswers(t *testing.T) {
	base := time.Now()
	prior := domain.NewSubmission("team-a", "m1", base,
		[]domain.Answer{{Item: "v001", Text: "red car"}})
	task := &taskStub{subs: []*domain.Submission{prior}}

	filter, err := NewDuplicateFilter("duplicate", DefaultDuplicateConfig())
	require.NoError(t, err)

	same := domain.NewSubmission("team-a", "m1", base.Add(time.Second),
		[]domain.Answer{{Item: "v001", Text: "red car"}})
	_, ok := ports.IsRejection(filter.Check(context.Background(), same, task))
	assert.True(t, ok)

	different := domain.NewSubmission("team-a", "m1", base.Add(time.Second),
		[]domain.Answer{{Item: "v001", Text: "blue car"}})
	assert.NoError(t, filter.Check(context.Background(), different, task))
}

func TestAttemptLimitFilter(t *testing.T) {
	base := time.Now()

	decided := func(team domain.TeamID, v domain.Verdict) *domain.Submission {
		sub := rangedSub(team, "v001", 0, 1000, base)
		sub.SetVerdict(v)
		return sub
	}

	tests := []struct {
		name     string
		config   AttemptLimitConfig
		prior    []*domain.Submission
		rejected bool
	}{
		{
			name:     "under team cap",
			config:   AttemptLimitConfig{MaxPerTeam: 3},
			prior:    []*domain.Submission{decided("team-a", domain.VerdictWrong)},
			rejected: false,
		},
		{
			name:   "team cap reached",
			config: AttemptLimitConfig{MaxPerTeam: 2},
			prior: []*domain.Submission{
				decided("team-a", domain.VerdictWrong),
				decided("team-a", domain.VerdictWrong),
			},
			rejected: true,
		},
		{
			name:   "other team does not count",
			config: AttemptLimitConfig{MaxPerTeam: 2},
			prior: []*domain.Submission{
				decided("team-b", domain.VerdictWrong),
				decided("team-b", domain.VerdictWrong),
			},
			rejected: false,
		},
		{
			name:     "correct cap reached",
			config:   AttemptLimitConfig{MaxCorrectPerTeam: 1},
			prior:    []*domain.Submission{decided("team-a", domain.VerdictCorrect)},
			rejected: true,
		},
		{
			name:   "wrong cap reached",
			config: AttemptLimitConfig{MaxWrongPerTeam: 2},
			prior: []*domain.Submission{
				decided("team-a", domain.VerdictWrong),
				decided("team-a", domain.VerdictWrong),
			},
			rejected: true,
		},
		{
			name:   "zero caps mean unlimited",
			config: AttemptLimitConfig{},
			prior: []*domain.Submission{
				decided("team-a", domain.VerdictWrong),
				decided("team-a", domain.VerdictWrong),
				decided("team-a", domain.VerdictWrong),
			},
			rejected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewAttemptLimitFilter("attempt_limit", tt.config)
			require.NoError(t, err)

			task := &taskStub{subs: tt.prior}
			sub := rangedSub("team-a", "v002", 0, 1000, base.Add(time.Second))
			err = filter.Check(context.Background(), sub, task)
			_, ok := ports.IsRejection(err)
			assert.Equal(t, tt.rejected, ok)
		})
	}
}

func TestMinGapFilter(t *testing.T) {
	base := time.Now()
	prior := rangedSub("team-a", "v001", 0, 1000, base)
	task := &taskStub{subs: []*domain.Submission{prior}}

	filter, err := NewMinGapFilter("min_gap", MinGapConfig{GapMS: 1000})
	require.NoError(t, err)

	tooSoon := rangedSub("team-a", "v002", 0, 1000, base.Add(500*time.Millisecond))
	_, ok := ports.IsRejection(filter.Check(context.Background(), tooSoon, task))
	assert.True(t, ok)

	afterGap := rangedSub("team-a", "v002", 0, 1000, base.Add(1500*time.Millisecond))
	assert.NoError(t, filter.Check(context.Background(), afterGap, task))

	otherTeam := rangedSub("team-b", "v002", 0, 1000, base.Add(100*time.Millisecond))
	assert.NoError(t, filter.Check(context.Background(), otherTeam, task))
}

func TestRequireRangeFilter(t *testing.T) {
	filter, err := NewRequireRangeFilter("require_range", RequireRangeConfig{MaxDurationMS: 5000})
	require.NoError(t, err)
	task := &taskStub{}

	noRange := domain.NewSubmission("team-a", "m1", time.Now(),
		[]domain.Answer{{Item: "v001"}})
	_, ok := ports.IsRejection(filter.Check(context.Background(), noRange, task))
	assert.True(t, ok)

	tooLong := rangedSub("team-a", "v001", 0, 10000, time.Now())
	_, ok = ports.IsRejection(filter.Check(context.Background(), tooLong, task))
	assert.True(t, ok)

	valid := rangedSub("team-a", "v001", 0, 4000, time.Now())
	assert.NoError(t, filter.Check(context.Background(), valid, task))
}

func TestRateLimitFilter(t *testing.T) {
	filter, err := NewRateLimitFilter("rate_limit", RateLimitConfig{PerSecond: 1, Burst: 2})
	require.NoError(t, err)
	task := &taskStub{}

	sub := func(team domain.TeamID) *domain.Submission {
		return rangedSub(team, "v001", 0, 1000, time.Now())
	}

	// The burst allows two back-to-back submissions, the third is throttled.
	assert.NoError(t, filter.Check(context.Background(), sub("team-a"), task))
	assert.NoError(t, filter.Check(context.Background(), sub("team-a"), task))
	_, ok := ports.IsRejection(filter.Check(context.Background(), sub("team-a"), task))
	assert.True(t, ok)

	// Buckets are per team.
	assert.NoError(t, filter.Check(context.Background(), sub("team-b"), task))
}

func TestRegistryCreatesConfiguredKinds(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		kind   string
		params map[string]any
	}{
		{kind: "duplicate", params: map[string]any{"tolerance_ms": 500}},
		{kind: "attempt_limit", params: map[string]any{"max_per_team": 5}},
		{kind: "min_gap", params: map[string]any{"gap_ms": 250}},
		{kind: "require_range", params: nil},
		{kind: "rate_limit", params: map[string]any{"per_second": 2.0, "burst": 4}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			f, err := registry.Create(tt.kind, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Name())
		})
	}

	_, err := registry.Create("unknown", nil)
	assert.Error(t, err)
}
