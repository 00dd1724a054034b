package domain

import "time"

// TaskTarget is the sealed set of things a task can ask participants to
// find. Consumers switch exhaustively over the concrete types and must
// treat an unknown implementation as a configuration error.
type TaskTarget interface{ targetKind() string }

// MediaItemTarget asks for a specific media item, anywhere within it.
type MediaItemTarget struct {
	// Item is the canonical name of the target media item.
	Item string
}

// MediaSegmentTarget asks for a specific temporal segment of a media item.
type MediaSegmentTarget struct {
	// Item is the canonical name of the target media item.
	Item string

	// Segment is the temporal region that counts as correct.
	Segment TemporalRange
}

// TextTarget asks for a textual answer matched against accepted strings.
type TextTarget struct {
	// Accepted lists all answer strings considered correct.
	Accepted []string
}

// JudgedTarget marks a task whose answers cannot be verified mechanically
// and must be classified by a human judge or an audience vote.
type JudgedTarget struct {
	// Description is shown to judges alongside each pending submission.
	Description string
}

func (MediaItemTarget) targetKind() string    { return "media_item" }
func (MediaSegmentTarget) targetKind() string { return "media_segment" }
func (TextTarget) targetKind() string         { return "text" }
func (JudgedTarget) targetKind() string       { return "judged" }

// ComponentConfig names a pipeline component (filter, validator, or scorer)
// together with its free-form parameters. Registries resolve the kind to a
// factory and validate the parameters against the component's config struct.
type ComponentConfig struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ProlongOptions enables the duration-extension behavior: a submission
// arriving within Window before the nominal end extends the effective
// duration by Extension. The extension is additive and may apply any
// number of times.
type ProlongOptions struct {
	Window    time.Duration `yaml:"window" json:"window"`
	Extension time.Duration `yaml:"extension" json:"extension"`
}

// TaskType bundles the scoring, filtering, and validation configuration
// shared by all tasks of one kind (e.g. "KIS", "AVS").
type TaskType struct {
	Name       string            `yaml:"name" json:"name"`
	Scoring    ComponentConfig   `yaml:"scoring" json:"scoring"`
	Filters    []ComponentConfig `yaml:"filters,omitempty" json:"filters,omitempty"`
	Validators []ComponentConfig `yaml:"validators,omitempty" json:"validators,omitempty"`
	Prolong    *ProlongOptions   `yaml:"prolong,omitempty" json:"prolong,omitempty"`
}

// TaskTemplate is the immutable description a TaskRun is instantiated from.
type TaskTemplate struct {
	Name     string
	Type     string
	Group    string
	Duration time.Duration
	Target   TaskTarget
}

// Team is one participating team with its roster.
type Team struct {
	ID      TeamID
	Name    string
	Members []MemberID
}

// TeamGroup names a subset of teams scored together on group boards.
type TeamGroup struct {
	Name  string
	Teams []TeamID
}

// Judge identifies a human judge allowed to resolve pending submissions.
type Judge struct {
	ID   MemberID
	Name string
}

// EvaluationTemplate is the immutable snapshot an evaluation run is created
// from: ordered task descriptions, the team roster, team groups, task-type
// definitions, and the judge roster. The orchestrator never mutates it.
type EvaluationTemplate struct {
	Name       string
	Teams      []Team
	TeamGroups []TeamGroup
	Judges     []Judge
	TaskTypes  map[string]TaskType
	Tasks      []TaskTemplate
}

// TaskTypeFor resolves the task type referenced by a template task.
func (t *EvaluationTemplate) TaskTypeFor(task TaskTemplate) (TaskType, bool) {
	tt, ok := t.TaskTypes[task.Type]
	return tt, ok
}

// TeamByID looks up a team in the roster.
func (t *EvaluationTemplate) TeamByID(id TeamID) (Team, bool) {
	for _, team := range t.Teams {
		if team.ID == id {
			return team, true
		}
	}
	return Team{}, false
}

// HasJudge reports whether the given member is on the judge roster.
func (t *EvaluationTemplate) HasJudge(id MemberID) bool {
	for _, j := range t.Judges {
		if j.ID == id {
			return true
		}
	}
	return false
}
