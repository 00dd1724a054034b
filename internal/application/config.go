package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
)

var validate = validator.New()

// TemplateConfig is the YAML schema of a competition template: the
// roster, the judge list, task-type definitions, and the ordered task
// list. Durations are milliseconds throughout.
type TemplateConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Teams      []TeamConfig      `yaml:"teams" validate:"required,min=1,dive"`
	TeamGroups []TeamGroupConfig `yaml:"team_groups,omitempty" validate:"dive"`
	Judges     []JudgeConfig     `yaml:"judges,omitempty" validate:"dive"`
	TaskTypes  []TaskTypeConfig  `yaml:"task_types" validate:"required,min=1,dive"`
	Tasks      []TaskConfig      `yaml:"tasks" validate:"required,min=1,dive"`
}

// TeamConfig declares one participating team.
type TeamConfig struct {
	ID      string   `yaml:"id" validate:"required"`
	Name    string   `yaml:"name" validate:"required"`
	Members []string `yaml:"members,omitempty"`
}

// TeamGroupConfig names a subset of the declared teams.
type TeamGroupConfig struct {
	Name  string   `yaml:"name" validate:"required"`
	Teams []string `yaml:"teams" validate:"required,min=1"`
}

// JudgeConfig declares one human judge.
type JudgeConfig struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// ComponentConfigEntry names a pipeline component with its parameters.
type ComponentConfigEntry struct {
	Kind   string         `yaml:"kind" validate:"required"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ProlongConfig enables submission-triggered duration extension.
type ProlongConfig struct {
	WindowMS    int64 `yaml:"window_ms" validate:"required,gt=0"`
	ExtensionMS int64 `yaml:"extension_ms" validate:"required,gt=0"`
}

// TaskTypeConfig bundles the scoring, filter, and validator configuration
// shared by all tasks of one kind.
type TaskTypeConfig struct {
	Name       string                 `yaml:"name" validate:"required"`
	Scoring    ComponentConfigEntry   `yaml:"scoring" validate:"required"`
	Filters    []ComponentConfigEntry `yaml:"filters,omitempty" validate:"dive"`
	Validators []ComponentConfigEntry `yaml:"validators" validate:"required,min=1,dive"`
	Prolong    *ProlongConfig         `yaml:"prolong,omitempty"`
}

// TargetConfig is the discriminated task-target union. Kind selects which
// of the remaining fields are meaningful.
type TargetConfig struct {
	Kind        string   `yaml:"kind" validate:"required,oneof=media_item media_segment text judged"`
	Item        string   `yaml:"item,omitempty"`
	StartMS     int64    `yaml:"start_ms,omitempty" validate:"gte=0"`
	EndMS       int64    `yaml:"end_ms,omitempty" validate:"gte=0"`
	Accepted    []string `yaml:"accepted,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// TaskConfig declares one task instance.
type TaskConfig struct {
	Name       string       `yaml:"name" validate:"required"`
	Type       string       `yaml:"type" validate:"required"`
	Group      string       `yaml:"group,omitempty"`
	DurationMS int64        `yaml:"duration_ms" validate:"required,gt=0"`
	Target     TargetConfig `yaml:"target" validate:"required"`
}

// LoadTemplate reads and parses a competition template from a YAML file.
func LoadTemplate(path string) (*domain.EvaluationTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	template, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return template, nil
}

// ParseTemplate decodes, validates, and cross-checks a YAML competition
// template. Unknown fields are rejected.
func ParseTemplate(data []byte) (*domain.EvaluationTemplate, error) {
	var cfg TemplateConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid template YAML: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	if err := cfg.crossCheck(); err != nil {
		return nil, err
	}
	return cfg.toTemplate()
}

// crossCheck verifies every reference between sections resolves: task
// types exist, group members are declared teams, names are unique.
func (c *TemplateConfig) crossCheck() error {
	teams := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if teams[t.ID] {
			return fmt.Errorf("duplicate team id: %s", t.ID)
		}
		teams[t.ID] = true
	}

	for _, g := range c.TeamGroups {
		for _, id := range g.Teams {
			if !teams[id] {
				return fmt.Errorf("team group %q references undeclared team %s", g.Name, id)
			}
		}
	}

	types := make(map[string]bool, len(c.TaskTypes))
	for _, tt := range c.TaskTypes {
		if types[tt.Name] {
			return fmt.Errorf("duplicate task type: %s", tt.Name)
		}
		types[tt.Name] = true
	}

	names := make(map[string]bool, len(c.Tasks))
	for _, task := range c.Tasks {
		if names[task.Name] {
			return fmt.Errorf("duplicate task name: %s", task.Name)
		}
		names[task.Name] = true
		if !types[task.Type] {
			return fmt.Errorf("task %q references undeclared task type %s", task.Name, task.Type)
		}
	}
	return nil
}

// toTemplate converts the validated config into the immutable domain
// template the orchestrator runs from.
func (c *TemplateConfig) toTemplate() (*domain.EvaluationTemplate, error) {
	template := &domain.EvaluationTemplate{
		Name:      c.Name,
		TaskTypes: make(map[string]domain.TaskType, len(c.TaskTypes)),
	}

	for _, t := range c.Teams {
		members := make([]domain.MemberID, len(t.Members))
		for i, m := range t.Members {
			members[i] = domain.MemberID(m)
		}
		template.Teams = append(template.Teams, domain.Team{
			ID:      domain.TeamID(t.ID),
			Name:    t.Name,
			Members: members,
		})
	}

	for _, g := range c.TeamGroups {
		ids := make([]domain.TeamID, len(g.Teams))
		for i, id := range g.Teams {
			ids[i] = domain.TeamID(id)
		}
		template.TeamGroups = append(template.TeamGroups, domain.TeamGroup{
			Name:  g.Name,
			Teams: ids,
		})
	}

	for _, j := range c.Judges {
		template.Judges = append(template.Judges, domain.Judge{
			ID:   domain.MemberID(j.ID),
			Name: j.Name,
		})
	}

	for _, tt := range c.TaskTypes {
		template.TaskTypes[tt.Name] = tt.toTaskType()
	}

	for _, task := range c.Tasks {
		target, err := task.Target.toTarget()
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}
		template.Tasks = append(template.Tasks, domain.TaskTemplate{
			Name:     task.Name,
			Type:     task.Type,
			Group:    task.Group,
			Duration: time.Duration(task.DurationMS) * time.Millisecond,
			Target:   target,
		})
	}
	return template, nil
}

func (tt TaskTypeConfig) toTaskType() domain.TaskType {
	out := domain.TaskType{
		Name:    tt.Name,
		Scoring: domain.ComponentConfig{Kind: tt.Scoring.Kind, Params: tt.Scoring.Params},
	}
	for _, f := range tt.Filters {
		out.Filters = append(out.Filters, domain.ComponentConfig{Kind: f.Kind, Params: f.Params})
	}
	for _, v := range tt.Validators {
		out.Validators = append(out.Validators, domain.ComponentConfig{Kind: v.Kind, Params: v.Params})
	}
	if tt.Prolong != nil {
		out.Prolong = &domain.ProlongOptions{
			Window:    time.Duration(tt.Prolong.WindowMS) * time.Millisecond,
			Extension: time.Duration(tt.Prolong.ExtensionMS) * time.Millisecond,
		}
	}
	return out
}

func (t TargetConfig) toTarget() (domain.TaskTarget, error) {
	switch t.Kind {
	case "media_item":
		if t.Item == "" {
			return nil, fmt.Errorf("media_item target requires item")
		}
		return domain.MediaItemTarget{Item: t.Item}, nil
	case "media_segment":
		if t.Item == "" {
			return nil, fmt.Errorf("media_segment target requires item")
		}
		if t.EndMS <= t.StartMS {
			return nil, fmt.Errorf("media_segment target requires end_ms > start_ms")
		}
		return domain.MediaSegmentTarget{
			Item: t.Item,
			Segment: domain.TemporalRange{
				Start: time.Duration(t.StartMS) * time.Millisecond,
				End:   time.Duration(t.EndMS) * time.Millisecond,
			},
		}, nil
	case "text":
		if len(t.Accepted) == 0 {
			return nil, fmt.Errorf("text target requires at least one accepted answer")
		}
		return domain.TextTarget{Accepted: t.Accepted}, nil
	case "judged":
		return domain.JudgedTarget{Description: t.Description}, nil
	default:
		return nil, fmt.Errorf("unsupported target kind: %s", t.Kind)
	}
}
