package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-arena/infrastructure/judgement"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// EvaluationState is the lifecycle position of one evaluation run.
type EvaluationState string

// Evaluation lifecycle states. Transitions are strictly
// CREATED -> RUNNING -> TERMINATED; termination is irreversible and an
// evaluation is never deleted, only marked ended.
const (
	EvaluationCreated    EvaluationState = "CREATED"
	EvaluationRunning    EvaluationState = "RUNNING"
	EvaluationTerminated EvaluationState = "TERMINATED"
)

// EvaluationRun owns an ordered list of task runs instantiated from an
// immutable template snapshot. It is the only mutation surface for
// starting, ending, and advancing tasks, and it enforces the invariant
// that at most one task is RUNNING at any instant: the "any task
// running?" check and the start happen under one lock.
type EvaluationRun struct {
	id       domain.EvaluationID
	template *domain.EvaluationTemplate
	tasks    []*TaskRun
	boards   []ports.Scoreboard
	judge    *judgement.Queue
	votes    *judgement.VoteCollector

	mu        sync.RWMutex
	state     EvaluationState
	startedAt time.Time
	endedAt   time.Time
	current   int // index of the running task, -1 if none
}

// ID returns the evaluation's identifier.
func (e *EvaluationRun) ID() domain.EvaluationID { return e.id }

// Template returns the immutable template snapshot.
func (e *EvaluationRun) Template() *domain.EvaluationTemplate { return e.template }

// Tasks returns the ordered task runs.
func (e *EvaluationRun) Tasks() []*TaskRun { return e.tasks }

// Boards returns the evaluation's scoreboards.
func (e *EvaluationRun) Boards() []ports.Scoreboard { return e.boards }

// Judgement returns the evaluation's judgement service.
func (e *EvaluationRun) Judgement() ports.JudgementService { return e.judge }

// Votes returns the audience-vote collector layered on the judgement queue.
func (e *EvaluationRun) Votes() *judgement.VoteCollector { return e.votes }

// State returns the current lifecycle state.
func (e *EvaluationRun) State() EvaluationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// StartedAt returns the wall-clock start timestamp, false if not started.
func (e *EvaluationRun) StartedAt() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.startedAt, !e.startedAt.IsZero()
}

// EndedAt returns the wall-clock termination timestamp, false if the
// evaluation has not been terminated.
func (e *EvaluationRun) EndedAt() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.endedAt, !e.endedAt.IsZero()
}

// Start moves the evaluation to RUNNING. Starting twice is a usage error.
func (e *EvaluationRun) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EvaluationCreated {
		return ports.NewIllegalRunState("start evaluation", string(e.state), domain.ErrRunAlreadyStarted)
	}
	e.state = EvaluationRunning
	e.startedAt = time.Now()
	return nil
}

// Terminate irreversibly ends the evaluation, ending a still-running task
// first; that task, if any, is returned so callers can report its end.
// Terminating twice is a usage error.
func (e *EvaluationRun) Terminate() (*TaskRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case EvaluationCreated:
		return nil, ports.NewIllegalRunState("terminate evaluation", string(e.state), domain.ErrRunNotRunning)
	case EvaluationTerminated:
		return nil, ports.NewIllegalRunState("terminate evaluation", string(e.state), domain.ErrRunTerminated)
	}
	var ended *TaskRun
	if e.current >= 0 {
		// Best effort: the running task ends with the evaluation.
		ended = e.tasks[e.current]
		_ = ended.End()
		e.current = -1
	}
	e.state = EvaluationTerminated
	e.endedAt = time.Now()
	e.judge.Close()
	return ended, nil
}

// StartTask starts the identified task. The no-task-running check and the
// transition are atomic: starting while another task is RUNNING fails
// with a usage error instead of queueing.
func (e *EvaluationRun) StartTask(id domain.TaskRunID) (*TaskRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EvaluationRunning {
		return nil, ports.NewIllegalRunState("start task", string(e.state), domain.ErrRunNotRunning)
	}
	if e.current >= 0 {
		return nil, ports.NewIllegalRunState("start task", string(TaskRunning), domain.ErrAnotherTaskRunning)
	}
	for i, task := range e.tasks {
		if task.ID() == id {
			if err := task.Start(); err != nil {
				return nil, err
			}
			e.current = i
			return task, nil
		}
	}
	return nil, domain.ErrNoActiveTask
}

// StartNextTask starts the first still-pending task in template order.
func (e *EvaluationRun) StartNextTask() (*TaskRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EvaluationRunning {
		return nil, ports.NewIllegalRunState("start task", string(e.state), domain.ErrRunNotRunning)
	}
	if e.current >= 0 {
		return nil, ports.NewIllegalRunState("start task", string(TaskRunning), domain.ErrAnotherTaskRunning)
	}
	for i, task := range e.tasks {
		if task.State() == TaskPending {
			if err := task.Start(); err != nil {
				return nil, err
			}
			e.current = i
			return task, nil
		}
	}
	return nil, domain.ErrNoActiveTask
}

// EndCurrentTask ends the running task.
func (e *EvaluationRun) EndCurrentTask() (*TaskRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EvaluationRunning {
		return nil, ports.NewIllegalRunState("end task", string(e.state), domain.ErrRunNotRunning)
	}
	if e.current < 0 {
		return nil, ports.NewIllegalRunState("end task", "no running task", domain.ErrRunNotRunning)
	}
	task := e.tasks[e.current]
	if err := task.End(); err != nil {
		return nil, err
	}
	e.current = -1
	return task, nil
}

// CurrentTask returns the running task, false if none is running.
func (e *EvaluationRun) CurrentTask() (*TaskRun, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current < 0 {
		return nil, false
	}
	return e.tasks[e.current], true
}

// TaskByID looks up a task run by its identifier.
func (e *EvaluationRun) TaskByID(id domain.TaskRunID) (*TaskRun, bool) {
	for _, task := range e.tasks {
		if task.ID() == id {
			return task, true
		}
	}
	return nil, false
}

// taskScores snapshots every task's latest score entries.
func (e *EvaluationRun) taskScores() []ports.TaskScores {
	scores := make([]ports.TaskScores, 0, len(e.tasks))
	for _, task := range e.tasks {
		scores = append(scores, ports.TaskScores{
			TaskID:  task.ID(),
			Group:   task.Group(),
			Entries: task.Scorer().Scores(),
		})
	}
	return scores
}

// RefreshBoards feeds the latest per-task scores to every scoreboard.
// Boards update concurrently; each replaces its snapshot wholesale.
func (e *EvaluationRun) RefreshBoards(ctx context.Context) error {
	scores := e.taskScores()
	g, _ := errgroup.WithContext(ctx)
	for _, board := range e.boards {
		g.Go(func() error {
			board.Update(scores)
			return nil
		})
	}
	return g.Wait()
}

// BoardByName looks up a scoreboard by name.
func (e *EvaluationRun) BoardByName(name string) (ports.Scoreboard, bool) {
	for _, board := range e.boards {
		if board.Name() == name {
			return board, true
		}
	}
	return nil, false
}
