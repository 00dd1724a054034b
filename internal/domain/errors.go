package domain

import "errors"

// Common domain errors surfaced by the run engine.
var (
	// ErrRunAlreadyStarted indicates start() was called on a run or task
	// that has already left the pending state.
	ErrRunAlreadyStarted = errors.New("run already started")

	// ErrRunNotRunning indicates end() was called on a run or task that
	// is not currently running.
	ErrRunNotRunning = errors.New("run not running")

	// ErrRunTerminated indicates a transition was attempted on an
	// evaluation that has already been terminated.
	ErrRunTerminated = errors.New("evaluation terminated")

	// ErrAnotherTaskRunning indicates a task start was attempted while a
	// different task of the same evaluation is still running.
	ErrAnotherTaskRunning = errors.New("another task is running")

	// ErrNoActiveTask indicates a submission could not be matched to any
	// running task eligible for the submitting team.
	ErrNoActiveTask = errors.New("no eligible task")

	// ErrUnknownTaskType indicates a task template references a task type
	// the evaluation template does not declare.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrUnknownTeam indicates a submission referenced a team that is not
	// on the evaluation's roster.
	ErrUnknownTeam = errors.New("unknown team")

	// ErrUnknownRun indicates the referenced evaluation run does not exist.
	ErrUnknownRun = errors.New("unknown evaluation run")

	// ErrUnknownJudge indicates the caller is not on the evaluation's
	// judge roster.
	ErrUnknownJudge = errors.New("unknown judge")
)
