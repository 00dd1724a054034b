package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
)

const validTemplateYAML = `
name: winter-cup
teams:
  - id: team-a
    name: Alpha
    members: [alice, adam]
  - id: team-b
    name: Beta
team_groups:
  - name: everyone
    teams: [team-a, team-b]
judges:
  - id: judge-1
    name: Vera
task_types:
  - name: KIS
    scoring:
      kind: kis
      params:
        max_points: 120
    filters:
      - kind: duplicate
        params:
          tolerance_ms: 500
    validators:
      - kind: temporal_overlap
    prolong:
      window_ms: 30000
      extension_ms: 60000
  - name: TEXT
    scoring:
      kind: kis
    validators:
      - kind: text_match
tasks:
  - name: kis-1
    type: KIS
    group: visual
    duration_ms: 300000
    target:
      kind: media_segment
      item: v001
      start_ms: 10000
      end_ms: 20000
  - name: text-1
    type: TEXT
    group: textual
    duration_ms: 120000
    target:
      kind: text
      accepted: [Marrakesh, Marrakech]
`

func TestParseTemplate(t *testing.T) {
	template, err := ParseTemplate([]byte(validTemplateYAML))
	require.NoError(t, err)

	assert.Equal(t, "winter-cup", template.Name)
	require.Len(t, template.Teams, 2)
	assert.Equal(t, []domain.MemberID{"alice", "adam"}, template.Teams[0].Members)
	require.Len(t, template.TeamGroups, 1)
	assert.Equal(t, []domain.TeamID{"team-a", "team-b"}, template.TeamGroups[0].Teams)
	assert.True(t, template.HasJudge("judge-1"))
	assert.False(t, template.HasJudge("judge-2"))

	kis, ok := template.TaskTypes["KIS"]
	require.True(t, ok)
	assert.Equal(t, "kis", kis.Scoring.Kind)
	assert.Equal(t, 120, kis.Scoring.Params["max_points"])
	require.NotNil(t, kis.Prolong)
	assert.Equal(t, 30*time.Second, kis.Prolong.Window)
	assert.Equal(t, time.Minute, kis.Prolong.Extension)

	require.Len(t, template.Tasks, 2)
	first := template.Tasks[0]
	assert.Equal(t, 5*time.Minute, first.Duration)
	segment, ok := first.Target.(domain.MediaSegmentTarget)
	require.True(t, ok)
	assert.Equal(t, "v001", segment.Item)
	assert.Equal(t, 10*time.Second, segment.Segment.Start)

	text, ok := template.Tasks[1].Target.(domain.TextTarget)
	require.True(t, ok)
	assert.Equal(t, []string{"Marrakesh", "Marrakech"}, text.Accepted)
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown top-level field",
			yaml: `
name: x
bogus: true
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "missing name",
			yaml: `
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "no teams",
			yaml: `
name: x
teams: []
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "task references undeclared type",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: MISSING, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "group references undeclared team",
			yaml: `
name: x
teams: [{id: t, name: T}]
team_groups: [{name: g, teams: [ghost]}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "duplicate task name",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks:
  - {name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}
  - {name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}
`,
		},
		{
			name: "task type without validators",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: []}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_item, item: v1}}]
`,
		},
		{
			name: "unsupported target kind",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: hologram, item: v1}}]
`,
		},
		{
			name: "segment target with inverted bounds",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: item_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: media_segment, item: v1, start_ms: 2000, end_ms: 1000}}]
`,
		},
		{
			name: "text target without accepted answers",
			yaml: `
name: x
teams: [{id: t, name: T}]
task_types: [{name: A, scoring: {kind: kis}, validators: [{kind: text_match}]}]
tasks: [{name: a, type: A, duration_ms: 1000, target: {kind: text}}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTemplateYAML), 0o644))

	template, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "winter-cup", template.Name)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
