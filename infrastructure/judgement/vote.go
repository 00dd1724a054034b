package judgement

import (
	"context"
	"sync"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// audienceJudgeID is the synthetic judge identity the vote collector uses
// when dispatching items from the underlying queue.
const audienceJudgeID = domain.MemberID("audience")

// VoteCollector is the audience-voting variant of the judgement flow:
// one pending submission is open for voting at a time, the audience casts
// verdict votes, and closing the poll resolves the submission through the
// underlying queue's token path with the majority verdict.
//
// The collector is active only while voting is open for the current item;
// votes arriving after closure are rejected with ErrVotingClosed, never
// queued.
type VoteCollector struct {
	queue *Queue

	mu      sync.Mutex
	open    bool
	current *ports.JudgementRequest
	counts  map[domain.Verdict]int
}

// NewVoteCollector creates a VoteCollector on top of the given queue.
func NewVoteCollector(queue *Queue) *VoteCollector {
	return &VoteCollector{
		queue:  queue,
		counts: make(map[domain.Verdict]int),
	}
}

// NextSubmissionToVoteOn returns the submission currently open for
// voting, dispatching the next pending one if no poll is open.
// It returns false when nothing is pending.
func (v *VoteCollector) NextSubmissionToVoteOn(ctx context.Context) (*domain.Submission, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.open {
		return v.current.Submission, true
	}

	req, ok := v.queue.Next(ctx, audienceJudgeID)
	if !ok {
		return nil, false
	}
	v.current = req
	v.counts = make(map[domain.Verdict]int)
	v.open = true
	return req.Submission, true
}

// Vote records one audience vote for the open poll.
// Votes for INDETERMINATE and votes outside an open poll are rejected.
func (v *VoteCollector) Vote(verdict domain.Verdict) error {
	if !verdict.IsFinal() {
		return ports.ErrVotingClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return ports.ErrVotingClosed
	}
	v.counts[verdict]++
	return nil
}

// VoteCounts returns the running tally per verdict option for the open
// poll. The returned map is a copy.
func (v *VoteCollector) VoteCounts() map[domain.Verdict]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	counts := make(map[domain.Verdict]int, len(v.counts))
	for verdict, n := range v.counts {
		counts[verdict] = n
	}
	return counts
}

// Active reports whether a poll is currently open.
func (v *VoteCollector) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// CloseVoting closes the poll and resolves the submission with the
// majority verdict; a tie or an empty poll resolves UNDECIDABLE.
// It returns the applied verdict.
func (v *VoteCollector) CloseVoting(ctx context.Context) (domain.Verdict, error) {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return "", ports.ErrVotingClosed
	}
	v.open = false
	req := v.current
	verdict := majority(v.counts)
	v.current = nil
	v.counts = make(map[domain.Verdict]int)
	v.mu.Unlock()

	if err := v.queue.Judge(ctx, req.Token, verdict); err != nil {
		return "", err
	}
	return verdict, nil
}

// majority picks the verdict with the strictly highest tally.
func majority(counts map[domain.Verdict]int) domain.Verdict {
	best := domain.VerdictUndecidable
	bestCount := 0
	tied := false
	for verdict, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tied = verdict, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return domain.VerdictUndecidable
	}
	return best
}
