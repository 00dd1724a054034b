package validators

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.AnswerSetValidator = (*TextMatchValidator)(nil)

// Package-level Unicode case folder shared by all text validators.
var foldCaser = cases.Fold()

// TextMatchValidator classifies free-text answers against the accepted
// strings of a text target. Matching folds case and trims whitespace, and
// optionally tolerates small edit distances so that typos do not cost a
// team the task.
type TextMatchValidator struct {
	name   string
	config TextMatchConfig
}

// TextMatchConfig controls normalization and fuzziness.
type TextMatchConfig struct {
	// CaseSensitive disables Unicode case folding before comparison.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace applies strings.TrimSpace before comparison.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`

	// MinSimilarity is the minimum normalized Levenshtein similarity
	// (0.0-1.0) for a match. 1.0 requires exact equality.
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity" validate:"min=0,max=1"`
}

// NewTextMatchValidator creates a TextMatchValidator with validated
// configuration.
func NewTextMatchValidator(name string, config TextMatchConfig) (*TextMatchValidator, error) {
	if name == "" {
		return nil, ErrEmptyValidatorName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TextMatchValidator{name: name, config: config}, nil
}

// Name returns the validator's identifier.
func (v *TextMatchValidator) Name() string { return v.name }

// Validate classifies the submission CORRECT when any answer text reaches
// the configured similarity against any accepted string.
func (v *TextMatchValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	target, ok := task.Target().(domain.TextTarget)
	if !ok {
		return ports.ValidationResult{}, unsupportedTarget(v.name, task.Target())
	}

	verdict := domain.VerdictWrong
outer:
	for _, ans := range sub.Answers {
		if ans.Text == "" {
			continue
		}
		candidate := v.prepare(ans.Text)
		for _, accepted := range target.Accepted {
			if v.similarity(candidate, v.prepare(accepted)) >= v.config.MinSimilarity {
				verdict = domain.VerdictCorrect
				break outer
			}
		}
	}
	sub.SetVerdict(verdict)
	return ports.Immediate(verdict), nil
}

func (v *TextMatchValidator) prepare(s string) string {
	if v.config.TrimWhitespace {
		s = strings.TrimSpace(s)
	}
	if !v.config.CaseSensitive {
		s = foldCaser.String(s)
	}
	return s
}

// similarity computes 1 - distance/maxRuneLen, clamped to [0, 1].
// Rune counts keep the normalization consistent with the rune-based
// Levenshtein distance for multi-byte text.
func (v *TextMatchValidator) similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	sim := 1.0 - float64(distance)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// DefaultTextMatchConfig returns a TextMatchConfig performing exact,
// case-insensitive, whitespace-trimmed matching.
func DefaultTextMatchConfig() TextMatchConfig {
	return TextMatchConfig{
		CaseSensitive:  false,
		TrimWhitespace: true,
		MinSimilarity:  1.0,
	}
}

// NewTextMatchFromConfig creates a TextMatchValidator from a parameter map.
func NewTextMatchFromConfig(name string, params map[string]any) (ports.AnswerSetValidator, error) {
	cfg := DefaultTextMatchConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewTextMatchValidator(name, cfg)
}
