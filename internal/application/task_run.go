// Package application contains the orchestrator: the run manager, the
// evaluation and task state machines, the submission intake pipeline, and
// template configuration loading. It owns the only mutation surface for
// starting, ending, and advancing a run.
package application

import (
	"sync"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.TaskView = (*TaskRun)(nil)

// TaskState is the lifecycle position of one task run.
type TaskState string

// Task lifecycle states. Transitions are strictly
// PENDING -> RUNNING -> ENDED; anything else is a usage error.
const (
	TaskPending TaskState = "PENDING"
	TaskRunning TaskState = "RUNNING"
	TaskEnded   TaskState = "ENDED"
)

// TaskRun is one timed task instance within an evaluation. It owns its
// scorer, its pipeline components, and its accepted submissions. All
// lifecycle mutation goes through Start and End, which stamp wall-clock
// time at the instant of transition, never caller-supplied times.
type TaskRun struct {
	id       domain.TaskRunID
	template domain.TaskTemplate
	taskType domain.TaskType

	scorer   ports.Scorer
	pipeline *Pipeline

	// stateMu guards the lifecycle fields and the submission list.
	// procMu serializes submission processing so arrival order with
	// insertion-order tie-breaking is preserved for scoring.
	stateMu sync.RWMutex
	procMu  sync.Mutex

	state       TaskState
	startedAt   time.Time
	endedAt     time.Time
	extension   time.Duration
	submissions []*domain.Submission
}

// newTaskRun instantiates a task run from its template.
func newTaskRun(template domain.TaskTemplate, taskType domain.TaskType, scorer ports.Scorer, pipeline *Pipeline) *TaskRun {
	return &TaskRun{
		id:       domain.NewTaskRunID(),
		template: template,
		taskType: taskType,
		scorer:   scorer,
		pipeline: pipeline,
		state:    TaskPending,
	}
}

// ID returns the task run's identifier.
func (t *TaskRun) ID() domain.TaskRunID { return t.id }

// Name returns the template name of the task.
func (t *TaskRun) Name() string { return t.template.Name }

// Group returns the template group of the task.
func (t *TaskRun) Group() string { return t.template.Group }

// Target returns the task's target description.
func (t *TaskRun) Target() domain.TaskTarget { return t.template.Target }

// Scorer returns the task's owned scorer.
func (t *TaskRun) Scorer() ports.Scorer { return t.scorer }

// State returns the current lifecycle state.
func (t *TaskRun) State() TaskState {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.state
}

// StartedAt returns the wall-clock start timestamp, false if the task has
// not started.
func (t *TaskRun) StartedAt() (time.Time, bool) {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.startedAt, !t.startedAt.IsZero()
}

// EndedAt returns the wall-clock end timestamp, false if the task has not
// ended.
func (t *TaskRun) EndedAt() (time.Time, bool) {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.endedAt, !t.endedAt.IsZero()
}

// EffectiveDuration returns the template duration plus any prolongation
// applied so far. Scorers always read this, never the template default.
func (t *TaskRun) EffectiveDuration() time.Duration {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.template.Duration + t.extension
}

// Submissions returns a snapshot of accepted submissions ordered by
// arrival time, ties broken by processing order.
func (t *TaskRun) Submissions() []*domain.Submission {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	snapshot := make([]*domain.Submission, len(t.submissions))
	copy(snapshot, t.submissions)
	return snapshot
}

// Start moves the task to RUNNING, stamping wall-clock time.
// Starting a task that already left PENDING is a usage error.
func (t *TaskRun) Start() error {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.state != TaskPending {
		return ports.NewIllegalRunState("start task", string(t.state), domain.ErrRunAlreadyStarted)
	}
	t.state = TaskRunning
	t.startedAt = time.Now()
	return nil
}

// End moves the task to ENDED, stamping wall-clock time.
// Ending a task that is not RUNNING is a usage error.
func (t *TaskRun) End() error {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.state != TaskRunning {
		return ports.NewIllegalRunState("end task", string(t.state), domain.ErrRunNotRunning)
	}
	t.state = TaskEnded
	t.endedAt = time.Now()
	return nil
}

// scoreContext snapshots the parameters scorers are a function of.
func (t *TaskRun) scoreContext() ports.ScoreContext {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return ports.ScoreContext{
		TaskStart:         t.startedAt,
		EffectiveDuration: t.template.Duration + t.extension,
	}
}

// accept records the submission in the task's history, keeping it ordered
// by arrival time with processing order breaking timestamp ties. Callers
// may stamp arrival times themselves, so delivery order and arrival order
// can disagree.
func (t *TaskRun) accept(sub *domain.Submission) {
	t.stateMu.Lock()
	i := len(t.submissions)
	for i > 0 && t.submissions[i-1].ArrivedAt.After(sub.ArrivedAt) {
		i--
	}
	t.submissions = append(t.submissions, nil)
	copy(t.submissions[i+1:], t.submissions[i:])
	t.submissions[i] = sub
	t.stateMu.Unlock()
}

// maybeProlong extends the effective duration if the task type enables
// prolongation and the submission arrived within the trailing window
// before the current effective end. The extension is additive and may be
// applied any number of times.
func (t *TaskRun) maybeProlong(sub *domain.Submission) bool {
	opts := t.taskType.Prolong
	if opts == nil {
		return false
	}

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.state != TaskRunning {
		return false
	}
	effectiveEnd := t.startedAt.Add(t.template.Duration + t.extension)
	windowStart := effectiveEnd.Add(-opts.Window)
	if sub.ArrivedAt.Before(windowStart) || sub.ArrivedAt.After(effectiveEnd) {
		return false
	}
	t.extension += opts.Extension
	return true
}

// rescore refreshes the task's scores after a verdict change. Incremental
// scorers fold the changed submission in directly, but only when it is the
// latest by arrival time; a change anywhere earlier in the history replays
// the full set instead, so first-correct indices and penalty counts follow
// arrival order even under out-of-order delivery.
func (t *TaskRun) rescore(changed *domain.Submission) {
	sctx := t.scoreContext()
	subs := t.Submissions()
	if scorer, ok := t.scorer.(ports.IncrementalScorer); ok &&
		changed != nil && len(subs) > 0 && subs[len(subs)-1] == changed {
		scorer.Update(changed, sctx)
		return
	}
	if scorer, ok := t.scorer.(ports.RecalculatingScorer); ok {
		scorer.ComputeScores(subs, sctx)
	}
}
