package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/infrastructure/filters"
	"github.com/ahrav/go-arena/infrastructure/judgement"
	"github.com/ahrav/go-arena/infrastructure/scorers"
	"github.com/ahrav/go-arena/infrastructure/validators"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func segmentTarget() domain.TaskTarget {
	return domain.MediaSegmentTarget{
		Item:    "v001",
		Segment: domain.TemporalRange{Start: ms(10000), End: ms(20000)},
	}
}

// newSegmentTask builds a task run with a KIS scorer and a temporal
// overlap validator, no filters unless given.
func newSegmentTask(t *testing.T, taskType domain.TaskType, filters []ports.SubmissionFilter) *TaskRun {
	t.Helper()
	scorer, err := scorers.NewKISScorer("kis", scorers.DefaultKISConfig())
	require.NoError(t, err)
	validator, err := validators.NewTemporalOverlapValidator("overlap", validators.TemporalConfig{})
	require.NoError(t, err)

	template := domain.TaskTemplate{
		Name:     "kis-1",
		Type:     taskType.Name,
		Duration: 5 * time.Minute,
		Target:   segmentTarget(),
	}
	return newTaskRun(template, taskType, scorer, NewPipeline(filters, validator))
}

func segmentSub(team domain.TeamID, startMS, endMS int64, at time.Time) *domain.Submission {
	r := domain.TemporalRange{Start: ms(startMS), End: ms(endMS)}
	return domain.NewSubmission(team, "m1", at, []domain.Answer{{Item: "v001", Range: &r}})
}

func TestTaskRunLifecycle(t *testing.T) {
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil)
	assert.Equal(t, TaskPending, task.State())

	_, started := task.StartedAt()
	assert.False(t, started)

	require.NoError(t, task.Start())
	assert.Equal(t, TaskRunning, task.State())
	_, started = task.StartedAt()
	assert.True(t, started)

	require.NoError(t, task.End())
	assert.Equal(t, TaskEnded, task.State())
	_, ended := task.EndedAt()
	assert.True(t, ended)
}

func TestTaskRunIllegalTransitions(t *testing.T) {
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil)

	// Ending a pending task.
	err := task.End()
	var illegal *ports.IllegalRunStateError
	require.ErrorAs(t, err, &illegal)
	assert.ErrorIs(t, err, domain.ErrRunNotRunning)

	require.NoError(t, task.Start())

	// Starting twice.
	err = task.Start()
	require.ErrorAs(t, err, &illegal)
	assert.ErrorIs(t, err, domain.ErrRunAlreadyStarted)

	require.NoError(t, task.End())

	// Restarting an ended task.
	assert.ErrorIs(t, task.Start(), domain.ErrRunAlreadyStarted)
	assert.ErrorIs(t, task.End(), domain.ErrRunNotRunning)
}

func TestTaskRunProcessImmediateVerdict(t *testing.T) {
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil)
	require.NoError(t, task.Start())
	start, _ := task.StartedAt()

	result, err := task.Process(context.Background(), segmentSub("team-a", 12000, 15000, start.Add(time.Minute)))
	require.NoError(t, err)
	require.Nil(t, result.Rejection)
	assert.Equal(t, domain.VerdictCorrect, result.Verdict)

	result, err = task.Process(context.Background(), segmentSub("team-a", 500000, 600000, start.Add(2*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictWrong, result.Verdict)

	assert.Len(t, task.Submissions(), 2)
}

func TestTaskRunProcessFilterRejection(t *testing.T) {
	dup, err := newDuplicateFilter(t)
	require.NoError(t, err)
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, []ports.SubmissionFilter{dup})
	require.NoError(t, task.Start())
	start, _ := task.StartedAt()

	first, err := task.Process(context.Background(), segmentSub("team-a", 12000, 15000, start.Add(time.Minute)))
	require.NoError(t, err)
	require.Nil(t, first.Rejection)

	second, err := task.Process(context.Background(), segmentSub("team-a", 12000, 15000, start.Add(2*time.Minute)))
	require.NoError(t, err)
	require.NotNil(t, second.Rejection)
	assert.Equal(t, "duplicate", second.Rejection.Filter)

	// Rejected submissions are never recorded.
	assert.Len(t, task.Submissions(), 1)
}

// Submissions carry caller-stamped arrival times, so a correct answer can
// be delivered before a wrong one that actually arrived earlier. Scoring
// must follow arrival order, not delivery order.
func TestTaskRunScoresByArrivalOrder(t *testing.T) {
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil)
	require.NoError(t, task.Start())
	start, _ := task.StartedAt()

	correct := segmentSub("team-a", 12000, 15000, start.Add(time.Minute))
	result, err := task.Process(context.Background(), correct)
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictCorrect, result.Verdict)

	wrong := segmentSub("team-a", 500000, 600000, start.Add(10*time.Second))
	result, err = task.Process(context.Background(), wrong)
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictWrong, result.Verdict)

	// The history is kept in arrival order regardless of delivery order.
	subs := task.Submissions()
	require.Len(t, subs, 2)
	assert.Equal(t, wrong.ID, subs[0].ID)
	assert.Equal(t, correct.ID, subs[1].ID)

	// The wrong attempt counts toward the penalty even though the correct
	// submission had already been scored: 50 + 50*(60/300) - 20*2 = 20.
	scores := task.Scorer().Scores()
	require.Len(t, scores, 1)
	assert.InDelta(t, 20.0, scores[0].Score, 1e-9)
}

func TestTaskRunProcessAfterEndRejected(t *testing.T) {
	task := newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil)
	require.NoError(t, task.Start())
	start, _ := task.StartedAt()
	require.NoError(t, task.End())

	_, err := task.Process(context.Background(), segmentSub("team-a", 12000, 15000, start.Add(time.Minute)))
	var illegal *ports.IllegalRunStateError
	require.ErrorAs(t, err, &illegal)
	assert.ErrorIs(t, err, domain.ErrRunNotRunning)
}

func TestTaskRunProlongation(t *testing.T) {
	taskType := domain.TaskType{
		Name: "KIS",
		Prolong: &domain.ProlongOptions{
			Window:    time.Minute,
			Extension: 2 * time.Minute,
		},
	}
	task := newSegmentTask(t, taskType, nil)
	require.NoError(t, task.Start())
	start, _ := task.StartedAt()

	baseline := task.EffectiveDuration()
	require.Equal(t, 5*time.Minute, baseline)

	// Arrival well before the trailing window does not prolong.
	result, err := task.Process(context.Background(), segmentSub("team-a", 12000, 15000, start.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, result.Prolonged)
	assert.Equal(t, baseline, task.EffectiveDuration())

	// Arrival inside the last minute extends by two minutes.
	result, err = task.Process(context.Background(), segmentSub("team-b", 12000, 15000, start.Add(4*time.Minute+30*time.Second)))
	require.NoError(t, err)
	assert.True(t, result.Prolonged)
	assert.Equal(t, 7*time.Minute, task.EffectiveDuration())

	// The extension is additive and repeatable within the new window.
	result, err = task.Process(context.Background(), segmentSub("team-a", 16000, 17000, start.Add(6*time.Minute+30*time.Second)))
	require.NoError(t, err)
	assert.True(t, result.Prolonged)
	assert.Equal(t, 9*time.Minute, task.EffectiveDuration())
}

func TestEvaluationRunLifecycle(t *testing.T) {
	run := newTestEvaluationRun(t, 2)

	assert.Equal(t, EvaluationCreated, run.State())
	_, err := run.Terminate()
	assert.ErrorIs(t, err, domain.ErrRunNotRunning)

	require.NoError(t, run.Start())
	assert.Equal(t, EvaluationRunning, run.State())
	assert.ErrorIs(t, run.Start(), domain.ErrRunAlreadyStarted)

	task, err := run.StartNextTask()
	require.NoError(t, err)
	assert.Equal(t, TaskRunning, task.State())

	// Terminating ends the running task with the evaluation and reports
	// which task that was.
	ended, err := run.Terminate()
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, task.ID(), ended.ID())
	assert.Equal(t, EvaluationTerminated, run.State())
	assert.Equal(t, TaskEnded, task.State())
	_, err = run.Terminate()
	assert.ErrorIs(t, err, domain.ErrRunTerminated)

	_, err = run.StartNextTask()
	assert.ErrorIs(t, err, domain.ErrRunNotRunning)
}

func TestEvaluationRunSingleRunningTask(t *testing.T) {
	run := newTestEvaluationRun(t, 2)
	require.NoError(t, run.Start())

	_, err := run.StartNextTask()
	require.NoError(t, err)

	_, err = run.StartNextTask()
	assert.ErrorIs(t, err, domain.ErrAnotherTaskRunning)

	_, err = run.EndCurrentTask()
	require.NoError(t, err)

	second, err := run.StartNextTask()
	require.NoError(t, err)
	assert.Equal(t, run.Tasks()[1].ID(), second.ID())
}

func TestEvaluationRunConcurrentStartsAdmitOne(t *testing.T) {
	run := newTestEvaluationRun(t, 8)
	require.NoError(t, run.Start())

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = run.StartNextTask()
		}(i)
	}
	wg.Wait()

	var started, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, domain.ErrAnotherTaskRunning):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, attempts-1, refused)
}

// newTestEvaluationRun wires an evaluation run with n identical segment
// tasks directly, bypassing the manager.
func newTestEvaluationRun(t *testing.T, n int) *EvaluationRun {
	t.Helper()
	run := &EvaluationRun{
		id:       domain.NewEvaluationID(),
		template: &domain.EvaluationTemplate{Name: "test"},
		state:    EvaluationCreated,
		current:  -1,
	}
	run.judge = judgement.NewQueue("test")
	run.votes = judgement.NewVoteCollector(run.judge)
	for i := 0; i < n; i++ {
		run.tasks = append(run.tasks, newSegmentTask(t, domain.TaskType{Name: "KIS"}, nil))
	}
	return run
}

func newDuplicateFilter(t *testing.T) (ports.SubmissionFilter, error) {
	t.Helper()
	return filters.NewDuplicateFilter("duplicate", filters.DefaultDuplicateConfig())
}
