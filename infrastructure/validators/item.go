package validators

import (
	"context"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.AnswerSetValidator = (*ItemMatchValidator)(nil)

// ItemMatchValidator classifies a submission CORRECT when any of its
// answers references the target media item, ignoring temporal ranges.
// It supports media-item and media-segment targets; for segment targets
// only the item identity matters.
type ItemMatchValidator struct {
	name string
}

// NewItemMatchValidator creates an ItemMatchValidator.
func NewItemMatchValidator(name string) (*ItemMatchValidator, error) {
	if name == "" {
		return nil, ErrEmptyValidatorName
	}
	return &ItemMatchValidator{name: name}, nil
}

// Name returns the validator's identifier.
func (v *ItemMatchValidator) Name() string { return v.name }

// Validate compares each answer's item reference against the target item.
func (v *ItemMatchValidator) Validate(ctx context.Context, sub *domain.Submission, task ports.TaskView) (ports.ValidationResult, error) {
	var targetItem string
	switch target := task.Target().(type) {
	case domain.MediaItemTarget:
		targetItem = target.Item
	case domain.MediaSegmentTarget:
		targetItem = target.Item
	default:
		return ports.ValidationResult{}, unsupportedTarget(v.name, task.Target())
	}

	verdict := domain.VerdictWrong
	for _, ans := range sub.Answers {
		if ans.Item == targetItem {
			verdict = domain.VerdictCorrect
			break
		}
	}
	sub.SetVerdict(verdict)
	return ports.Immediate(verdict), nil
}

// NewItemMatchFromConfig creates an ItemMatchValidator from a parameter
// map. The validator takes no parameters.
func NewItemMatchFromConfig(name string, _ map[string]any) (ports.AnswerSetValidator, error) {
	return NewItemMatchValidator(name)
}
