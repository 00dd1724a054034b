// Command runsim replays a scripted competition run against the engine:
// it loads a YAML template and a submission timeline, drives the tasks in
// order, resolves scripted judgements, and prints per-task scores and the
// final boards.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/pkg/logger"
)

// scriptConfig is the YAML schema of a scripted run: one entry per
// submission, grouped by task name, with arrival offsets relative to the
// task start.
type scriptConfig struct {
	Submissions []scriptSubmission `yaml:"submissions"`
}

type scriptSubmission struct {
	Task     string `yaml:"task"`
	OffsetMS int64  `yaml:"offset_ms"`
	Team     string `yaml:"team"`
	Member   string `yaml:"member"`
	Item     string `yaml:"item,omitempty"`
	Text     string `yaml:"text,omitempty"`
	StartMS  *int64 `yaml:"start_ms,omitempty"`
	EndMS    *int64 `yaml:"end_ms,omitempty"`

	// Verdict resolves the submission when validation defers it to a
	// judge, e.g. "CORRECT" or "WRONG".
	Verdict string `yaml:"verdict,omitempty"`
}

func main() {
	templatePath := flag.String("template", "", "path to the competition template YAML")
	scriptPath := flag.String("script", "", "path to the scripted submission timeline YAML")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if *templatePath == "" || *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*templatePath, *scriptPath, *logLevel); err != nil {
		log.Fatalf("runsim: %v", err)
	}
}

func run(templatePath, scriptPath, logLevel string) error {
	ctx := context.Background()

	template, err := application.LoadTemplate(templatePath)
	if err != nil {
		return err
	}
	script, err := loadScript(scriptPath)
	if err != nil {
		return err
	}

	manager := application.NewRunManager(application.WithLogger(logger.New(logLevel)))
	defer manager.Close()

	evalRun, err := manager.CreateRun(ctx, template)
	if err != nil {
		return err
	}
	if err := manager.StartRun(ctx, evalRun.ID()); err != nil {
		return err
	}
	fmt.Printf("evaluation %q started (%d tasks, %d teams)\n\n",
		template.Name, len(evalRun.Tasks()), len(template.Teams))

	byTask := make(map[string][]scriptSubmission)
	for _, s := range script.Submissions {
		byTask[s.Task] = append(byTask[s.Task], s)
	}

	for range evalRun.Tasks() {
		task, err := manager.StartNextTask(ctx, evalRun.ID())
		if err != nil {
			return err
		}
		start, _ := task.StartedAt()

		for _, s := range byTask[task.Name()] {
			if err := replaySubmission(ctx, manager, evalRun.ID(), template, task.Name(), start, s); err != nil {
				return err
			}
		}

		if _, err := manager.EndCurrentTask(ctx, evalRun.ID()); err != nil {
			return err
		}
		fmt.Printf("task %q (%s):\n", task.Name(), task.Group())
		printEntries(task.Scorer().Scores())
	}

	fmt.Println("\nfinal boards:")
	for _, board := range evalRun.Boards() {
		fmt.Printf("%s:\n", board.Name())
		printEntries(board.Scores())
	}

	return manager.TerminateRun(ctx, evalRun.ID())
}

func replaySubmission(
	ctx context.Context,
	manager *application.RunManager,
	runID domain.EvaluationID,
	template *domain.EvaluationTemplate,
	taskName string,
	taskStart time.Time,
	s scriptSubmission,
) error {
	answer := domain.Answer{Item: s.Item, Text: s.Text}
	if s.StartMS != nil && s.EndMS != nil {
		answer.Range = &domain.TemporalRange{
			Start: time.Duration(*s.StartMS) * time.Millisecond,
			End:   time.Duration(*s.EndMS) * time.Millisecond,
		}
	}
	arrivedAt := taskStart.Add(time.Duration(s.OffsetMS) * time.Millisecond)

	result, err := manager.ProcessSubmission(ctx, runID,
		domain.TeamID(s.Team), domain.MemberID(s.Member),
		[]domain.Answer{answer}, arrivedAt)
	if err != nil {
		return fmt.Errorf("task %s: submission by %s: %w", taskName, s.Team, err)
	}

	switch {
	case result.Rejection != nil:
		fmt.Printf("  %-8s +%6dms rejected: %s\n", s.Team, s.OffsetMS, result.Rejection.Reason)
	case result.Deferred:
		fmt.Printf("  %-8s +%6dms deferred\n", s.Team, s.OffsetMS)
		if s.Verdict != "" {
			if err := resolveDeferred(ctx, manager, runID, template, s.Verdict); err != nil {
				return err
			}
		}
	default:
		fmt.Printf("  %-8s +%6dms %s\n", s.Team, s.OffsetMS, result.Verdict)
	}
	return nil
}

// resolveDeferred plays the judge: it pulls the next pending submission
// and applies the scripted verdict.
func resolveDeferred(ctx context.Context, manager *application.RunManager, runID domain.EvaluationID, template *domain.EvaluationTemplate, raw string) error {
	if len(template.Judges) == 0 {
		return errors.New("script resolves a deferred submission but the template declares no judges")
	}
	verdict, err := domain.ParseVerdict(raw)
	if err != nil {
		return err
	}
	judgeID := template.Judges[0].ID
	req, ok, err := manager.NextJudgement(ctx, runID, judgeID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no pending judgement to resolve")
	}
	return manager.SubmitVerdict(ctx, runID, judgeID, req.Token, verdict)
}

func loadScript(path string) (*scriptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	var script scriptConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid script YAML: %w", err)
	}
	return &script, nil
}

func printEntries(entries []domain.ScoreEntry) {
	if len(entries) == 0 {
		fmt.Println("  (no scores)")
		return
	}
	for _, e := range entries {
		fmt.Printf("  %-8s %8.2f\n", e.TeamID, e.Score)
	}
}
