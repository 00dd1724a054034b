package domain

import "fmt"

// Verdict classifies the correctness of a submission.
// A submission starts INDETERMINATE and is moved exactly once to a final
// verdict by a validator or a judgement resolution.
type Verdict string

// Supported verdict values.
const (
	// VerdictIndeterminate marks a submission whose correctness has not
	// been decided yet, typically because it awaits a judgement.
	VerdictIndeterminate Verdict = "INDETERMINATE"

	// VerdictCorrect marks a submission accepted as a correct answer.
	VerdictCorrect Verdict = "CORRECT"

	// VerdictWrong marks a submission rejected as incorrect.
	VerdictWrong Verdict = "WRONG"

	// VerdictUndecidable marks a submission a judge could not classify
	// either way. Undecidable submissions never contribute to scores.
	VerdictUndecidable Verdict = "UNDECIDABLE"
)

// ParseVerdict converts a string into a Verdict, rejecting unknown values.
func ParseVerdict(s string) (Verdict, error) {
	switch Verdict(s) {
	case VerdictIndeterminate, VerdictCorrect, VerdictWrong, VerdictUndecidable:
		return Verdict(s), nil
	default:
		return "", fmt.Errorf("unknown verdict %q", s)
	}
}

// IsFinal reports whether the verdict is a terminal classification.
func (v Verdict) IsFinal() bool { return v != VerdictIndeterminate }

// Decided reports whether the verdict counts toward scoring.
// Undecidable submissions are final but excluded from score computation.
func (v Verdict) Decided() bool { return v == VerdictCorrect || v == VerdictWrong }

func (v Verdict) String() string { return string(v) }
