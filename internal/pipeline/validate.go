package pipeline

import (
	"fmt"
	"strings"
)

// StepNumberError reports step/total arguments that cannot describe a real
// pipeline position
type StepNumberError struct {
	Number int
	Total  int
}

func (e *StepNumberError) Error() string {
	switch {
	case e.Number <= 0:
		return fmt.Sprintf("invalid step number: %d (must be greater than 0)", e.Number)
	case e.Total <= 0:
		return fmt.Sprintf("invalid total steps: %d (must be greater than 0)", e.Total)
	default:
		return fmt.Sprintf("step number (%d) cannot be greater than total steps (%d)", e.Number, e.Total)
	}
}

// ValidateStepNumber checks that 1 <= number <= total
func ValidateStepNumber(number, total int) error {
	if number <= 0 || total <= 0 || number > total {
		return &StepNumberError{Number: number, Total: total}
	}
	return nil
}

// ValidationError collects every structural violation found in a state
// record so diagnostics show the whole picture, not just the first problem
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline state failed validation: %s", strings.Join(e.Violations, "; "))
}

// Validate checks a state record structurally. It is applied both before
// every save and after any load or backup recovery, so a bad record can
// neither be written out nor promoted back in.
func Validate(state *PipelineState) error {
	if state == nil {
		return &ValidationError{Violations: []string{"state is nil"}}
	}

	var violations []string

	if state.PRNumber < 0 {
		violations = append(violations, fmt.Sprintf("pr_number must be non-negative, got %d", state.PRNumber))
	}
	if strings.TrimSpace(state.PRTitle) == "" {
		violations = append(violations, "pr_title must be a non-empty string")
	}
	if strings.TrimSpace(state.Author) == "" {
		violations = append(violations, "author must be a non-empty string")
	}
	if strings.TrimSpace(state.Repository) == "" {
		violations = append(violations, "repository must be a non-empty string")
	}
	if strings.TrimSpace(state.Branch) == "" {
		violations = append(violations, "branch must be a non-empty string")
	}
	if state.StartedAt.IsZero() {
		violations = append(violations, "pipeline_started_at must be a valid timestamp")
	}

	seen := make(map[int]bool, len(state.Steps))
	for i := range state.Steps {
		step := &state.Steps[i]
		if step.Number <= 0 {
			violations = append(violations, fmt.Sprintf("steps[%d].number must be positive, got %d", i, step.Number))
		}
		if strings.TrimSpace(step.Name) == "" {
			violations = append(violations, fmt.Sprintf("steps[%d].name must be a non-empty string", i))
		}
		if step.Status == "" {
			violations = append(violations, fmt.Sprintf("steps[%d].status must be a non-empty string", i))
		}
		for j, pair := range step.AdditionalInfo {
			if pair.Key() == "" {
				violations = append(violations, fmt.Sprintf("steps[%d].additional_info[%d] key must be non-empty", i, j))
			}
		}
		if seen[step.Number] {
			violations = append(violations, fmt.Sprintf("steps[%d].number %d duplicates an earlier step", i, step.Number))
		}
		seen[step.Number] = true
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
