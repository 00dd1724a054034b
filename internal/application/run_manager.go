package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-arena/infrastructure/filters"
	"github.com/ahrav/go-arena/infrastructure/judgement"
	"github.com/ahrav/go-arena/infrastructure/scoreboards"
	"github.com/ahrav/go-arena/infrastructure/scorers"
	"github.com/ahrav/go-arena/infrastructure/validators"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
	"github.com/ahrav/go-arena/pkg/logger"
)

// maxNormCeiling is the score the leading team is rescaled to on the
// normalized board.
const maxNormCeiling = 100

// RunManager is the explicit registry of live evaluation runs and the
// single entry point for mutating them: creating runs, advancing tasks,
// taking submissions, and resolving judgements. Callers construct one
// manager and share it; there is no process-wide instance.
type RunManager struct {
	filters *filters.Registry
	scorers *scorers.Registry

	metrics      ports.MetricsCollector
	log          logger.Logger
	notifier     *EventNotifier
	judgeTimeout time.Duration

	mu   sync.RWMutex
	runs map[domain.EvaluationID]*EvaluationRun
}

// ManagerOption configures a RunManager.
type ManagerOption func(*RunManager)

// WithMetrics wires a metrics collector into the manager and every run it
// creates.
func WithMetrics(m ports.MetricsCollector) ManagerOption {
	return func(rm *RunManager) { rm.metrics = m }
}

// WithLogger sets the manager's logger.
func WithLogger(l logger.Logger) ManagerOption {
	return func(rm *RunManager) { rm.log = l }
}

// WithJudgementTimeout sets the verdict deadline for judgement queues of
// runs created by this manager. Zero disables deadlines.
func WithJudgementTimeout(d time.Duration) ManagerOption {
	return func(rm *RunManager) { rm.judgeTimeout = d }
}

// NewRunManager creates a RunManager with the standard filter, validator,
// and scorer kinds registered.
func NewRunManager(opts ...ManagerOption) *RunManager {
	rm := &RunManager{
		filters: filters.NewRegistry(),
		scorers: scorers.NewRegistry(),
		metrics: ports.NopMetrics{},
		log:     logger.Nop(),
		runs:    make(map[domain.EvaluationID]*EvaluationRun),
	}
	for _, opt := range opts {
		opt(rm)
	}
	rm.log = rm.log.Named("runmanager")
	rm.notifier = NewEventNotifier(defaultNotifierWorkers, rm.metrics)
	return rm
}

// Filters exposes the filter registry for custom kind registration.
func (rm *RunManager) Filters() *filters.Registry { return rm.filters }

// Scorers exposes the scorer registry for custom kind registration.
func (rm *RunManager) Scorers() *scorers.Registry { return rm.scorers }

// Subscribe registers a sink for run events of every managed run.
func (rm *RunManager) Subscribe(sink ports.RunEventSink) { rm.notifier.Subscribe(sink) }

// Close drains the event notifier. Managed runs are left as they are.
func (rm *RunManager) Close() { rm.notifier.Stop() }

// CreateRun instantiates an evaluation run from the template: one task run
// per template task with its own scorer and pipeline, the judgement queue
// with its vote collector, and the scoreboards. The template is not
// mutated and may be reused for further runs.
func (rm *RunManager) CreateRun(ctx context.Context, template *domain.EvaluationTemplate) (*EvaluationRun, error) {
	if template == nil {
		return nil, fmt.Errorf("evaluation template cannot be nil")
	}
	if len(template.Tasks) == 0 {
		return nil, fmt.Errorf("evaluation template %q has no tasks", template.Name)
	}

	run := &EvaluationRun{
		id:       domain.NewEvaluationID(),
		template: template,
		state:    EvaluationCreated,
		current:  -1,
	}

	queue := judgement.NewQueue(template.Name,
		judgement.WithTimeout(rm.judgeTimeout),
		judgement.WithMetrics(rm.metrics),
		judgement.WithLogger(rm.log),
		judgement.WithResolveCallback(func(sub *domain.Submission, verdict domain.Verdict) {
			rm.onJudged(run, sub, verdict)
		}),
	)
	run.judge = queue
	run.votes = judgement.NewVoteCollector(queue)

	valRegistry := validators.NewRegistry(queue)
	for _, task := range template.Tasks {
		taskType, ok := template.TaskTypeFor(task)
		if !ok {
			return nil, fmt.Errorf("task %q: %w: %s", task.Name, domain.ErrUnknownTaskType, task.Type)
		}
		taskRun, err := rm.buildTaskRun(task, taskType, valRegistry)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}
		run.tasks = append(run.tasks, taskRun)
	}
	run.boards = buildBoards(template)

	rm.mu.Lock()
	rm.runs[run.id] = run
	rm.mu.Unlock()

	for _, taskRun := range run.tasks {
		rm.notifier.Emit(ports.EventTaskPrepared, run.id, taskRun.ID())
	}
	rm.log.Info(ctx, "evaluation run created",
		logger.String("run", run.id.String()),
		logger.String("template", template.Name),
		logger.Int("tasks", len(run.tasks)))
	return run, nil
}

// buildTaskRun assembles one task run's scorer and pipeline from its type
// configuration.
func (rm *RunManager) buildTaskRun(task domain.TaskTemplate, taskType domain.TaskType, valRegistry *validators.Registry) (*TaskRun, error) {
	scorer, err := rm.scorers.Create(taskType.Scoring.Kind, taskType.Scoring.Params)
	if err != nil {
		return nil, err
	}

	chain := make([]ports.SubmissionFilter, 0, len(taskType.Filters))
	for _, cfg := range taskType.Filters {
		f, err := rm.filters.Create(cfg.Kind, cfg.Params)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}

	if len(taskType.Validators) == 0 {
		return nil, fmt.Errorf("task type %q has no validators", taskType.Name)
	}
	stages := make([]ports.AnswerSetValidator, 0, len(taskType.Validators))
	for _, cfg := range taskType.Validators {
		v, err := valRegistry.Create(cfg.Kind, cfg.Params)
		if err != nil {
			return nil, err
		}
		stages = append(stages, v)
	}
	var validator ports.AnswerSetValidator = stages[0]
	if len(stages) > 1 {
		validator = newChainValidator(stages)
	}

	return newTaskRun(task, taskType, scorer, NewPipeline(chain, validator)), nil
}

// buildBoards assembles the standard board set: an overall sum, a
// max-normalized variant of it, one sum board per task group, and a mean
// board across the group boards when more than one group exists.
func buildBoards(template *domain.EvaluationTemplate) []ports.Scoreboard {
	boards := []ports.Scoreboard{
		scoreboards.NewSumBoard("overall", nil),
		scoreboards.NewMaxNormBoard("normalized", nil, maxNormCeiling),
	}

	seen := make(map[string]bool)
	var groupBoards []ports.Scoreboard
	for _, task := range template.Tasks {
		if task.Group == "" || seen[task.Group] {
			continue
		}
		seen[task.Group] = true
		groupBoards = append(groupBoards,
			scoreboards.NewSumBoard("group:"+task.Group, scoreboards.GroupFilter(task.Group)))
	}
	boards = append(boards, groupBoards...)
	if len(groupBoards) > 1 {
		boards = append(boards, scoreboards.NewMeanBoard("group-mean", groupBoards...))
	}
	return boards
}

// Run returns the managed run with the given ID.
func (rm *RunManager) Run(id domain.EvaluationID) (*EvaluationRun, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	run, ok := rm.runs[id]
	return run, ok
}

// Runs returns all managed runs, terminated ones included.
func (rm *RunManager) Runs() []*EvaluationRun {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	runs := make([]*EvaluationRun, 0, len(rm.runs))
	for _, run := range rm.runs {
		runs = append(runs, run)
	}
	return runs
}

// StartRun moves the run to RUNNING.
func (rm *RunManager) StartRun(ctx context.Context, id domain.EvaluationID) error {
	run, ok := rm.Run(id)
	if !ok {
		return domain.ErrUnknownRun
	}
	if err := run.Start(); err != nil {
		return err
	}
	rm.notifier.Emit(ports.EventEvaluationStarted, id, "")
	rm.log.Info(ctx, "evaluation started", logger.String("run", id.String()))
	return nil
}

// TerminateRun irreversibly ends the run. The run stays listed. A task
// still running at termination is ended with it and reported to sinks
// like an explicitly ended one.
func (rm *RunManager) TerminateRun(ctx context.Context, id domain.EvaluationID) error {
	run, ok := rm.Run(id)
	if !ok {
		return domain.ErrUnknownRun
	}
	ended, err := run.Terminate()
	if err != nil {
		return err
	}
	if ended != nil {
		rm.notifier.Emit(ports.EventTaskEnded, id, ended.ID())
	}
	rm.notifier.Emit(ports.EventEvaluationEnded, id, "")
	rm.log.Info(ctx, "evaluation terminated", logger.String("run", id.String()))
	return nil
}

// StartNextTask starts the run's next pending task in template order.
func (rm *RunManager) StartNextTask(ctx context.Context, id domain.EvaluationID) (*TaskRun, error) {
	run, ok := rm.Run(id)
	if !ok {
		return nil, domain.ErrUnknownRun
	}
	task, err := run.StartNextTask()
	if err != nil {
		return nil, err
	}
	rm.notifier.Emit(ports.EventTaskStarted, id, task.ID())
	rm.log.Info(ctx, "task started",
		logger.String("run", id.String()),
		logger.String("task", task.Name()))
	return task, nil
}

// EndCurrentTask ends the run's active task and refreshes the boards.
func (rm *RunManager) EndCurrentTask(ctx context.Context, id domain.EvaluationID) (*TaskRun, error) {
	run, ok := rm.Run(id)
	if !ok {
		return nil, domain.ErrUnknownRun
	}
	task, err := run.EndCurrentTask()
	if err != nil {
		return nil, err
	}
	rm.notifier.Emit(ports.EventTaskEnded, id, task.ID())
	rm.refreshBoards(ctx, run)
	rm.log.Info(ctx, "task ended",
		logger.String("run", id.String()),
		logger.String("task", task.Name()))
	return task, nil
}

// ProcessSubmission is the submission intake entry point: it resolves the
// run, the team, and the active task, then runs the submission through the
// task's pipeline. The returned result distinguishes rejection, deferral,
// and the immediate verdict.
func (rm *RunManager) ProcessSubmission(
	ctx context.Context,
	runID domain.EvaluationID,
	teamID domain.TeamID,
	memberID domain.MemberID,
	answers []domain.Answer,
	arrivedAt time.Time,
) (SubmissionResult, error) {
	run, ok := rm.Run(runID)
	if !ok {
		return SubmissionResult{}, domain.ErrUnknownRun
	}
	team, ok := run.Template().TeamByID(teamID)
	if !ok {
		return SubmissionResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownTeam, teamID)
	}
	if len(team.Members) > 0 && !memberOf(team, memberID) {
		return SubmissionResult{}, fmt.Errorf("%w: member %s not on team %s", domain.ErrUnknownTeam, memberID, teamID)
	}
	task, ok := run.CurrentTask()
	if !ok {
		rm.metrics.RecordSubmission("no_task")
		return SubmissionResult{}, domain.ErrNoActiveTask
	}

	if arrivedAt.IsZero() {
		arrivedAt = time.Now()
	}
	sub := domain.NewSubmission(teamID, memberID, arrivedAt, answers)

	result, err := task.Process(ctx, sub)
	if err != nil {
		return SubmissionResult{}, err
	}

	switch {
	case result.Rejection != nil:
		rm.metrics.RecordSubmission("rejected")
		rm.log.Debug(ctx, "submission rejected",
			logger.String("run", runID.String()),
			logger.String("team", teamID.String()),
			logger.String("reason", result.Rejection.Reason))
	case result.Deferred:
		rm.metrics.RecordSubmission("deferred")
		rm.notifier.Emit(ports.EventSubmissionAccepted, runID, task.ID())
	default:
		rm.metrics.RecordSubmission("accepted")
		rm.notifier.Emit(ports.EventSubmissionAccepted, runID, task.ID())
		rm.notifier.Emit(ports.EventTaskUpdated, runID, task.ID())
		rm.refreshBoards(ctx, run)
	}
	return result, nil
}

// NextJudgement hands the judge the next pending submission of the run.
// It returns false when nothing is pending.
func (rm *RunManager) NextJudgement(ctx context.Context, runID domain.EvaluationID, judgeID domain.MemberID) (*ports.JudgementRequest, bool, error) {
	run, ok := rm.Run(runID)
	if !ok {
		return nil, false, domain.ErrUnknownRun
	}
	if !run.Template().HasJudge(judgeID) {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrUnknownJudge, judgeID)
	}
	req, ok := run.judge.Next(ctx, judgeID)
	return req, ok, nil
}

// SubmitVerdict resolves an outstanding judgement token with the judge's
// verdict. Score recalculation and board refresh happen through the
// queue's resolve callback.
func (rm *RunManager) SubmitVerdict(ctx context.Context, runID domain.EvaluationID, judgeID domain.MemberID, token domain.JudgementToken, verdict domain.Verdict) error {
	run, ok := rm.Run(runID)
	if !ok {
		return domain.ErrUnknownRun
	}
	if !run.Template().HasJudge(judgeID) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownJudge, judgeID)
	}
	return run.judge.Judge(ctx, token, verdict)
}

// onJudged is the judgement queue's resolve callback: it rescans the task
// the submission belongs to and refreshes the boards.
func (rm *RunManager) onJudged(run *EvaluationRun, sub *domain.Submission, verdict domain.Verdict) {
	ctx := context.Background()
	task, ok := taskForSubmission(run, sub.ID)
	if !ok {
		// A verdict for a submission no task recorded: nothing to rescore.
		rm.log.Warn(ctx, "judged submission not found on any task",
			logger.String("run", run.ID().String()),
			logger.String("submission", sub.ID.String()))
		return
	}
	task.rescore(sub)
	rm.notifier.Emit(ports.EventSubmissionJudged, run.ID(), task.ID())
	rm.notifier.Emit(ports.EventTaskUpdated, run.ID(), task.ID())
	rm.refreshBoards(ctx, run)
	rm.log.Info(ctx, "deferred submission resolved",
		logger.String("run", run.ID().String()),
		logger.String("submission", sub.ID.String()),
		logger.String("verdict", verdict.String()))
}

// refreshBoards updates every board of the run and records the pass.
func (rm *RunManager) refreshBoards(ctx context.Context, run *EvaluationRun) {
	start := time.Now()
	if err := run.RefreshBoards(ctx); err != nil {
		rm.log.Error(ctx, "scoreboard refresh failed",
			logger.String("run", run.ID().String()),
			logger.Error(err))
		return
	}
	rm.metrics.RecordScoringLatency(time.Since(start))
	rm.notifier.Emit(ports.EventScoreboardsRefreshed, run.ID(), "")
}

// memberOf reports whether the member is on the team's roster.
func memberOf(team domain.Team, id domain.MemberID) bool {
	for _, m := range team.Members {
		if m == id {
			return true
		}
	}
	return false
}

// taskForSubmission finds the task run that recorded the submission.
func taskForSubmission(run *EvaluationRun, id domain.SubmissionID) (*TaskRun, bool) {
	for _, task := range run.Tasks() {
		for _, sub := range task.Submissions() {
			if sub.ID == id {
				return task, true
			}
		}
	}
	return nil, false
}
