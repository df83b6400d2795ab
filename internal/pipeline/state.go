package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// StepStatus represents the observed status of a pipeline step
type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusRunning StepStatus = "running"
	StatusSuccess StepStatus = "success"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// statusAliases maps the spellings CI systems emit onto canonical statuses
var statusAliases = map[string]StepStatus{
	"pending":     StatusPending,
	"waiting":     StatusPending,
	"running":     StatusRunning,
	"in_progress": StatusRunning,
	"in-progress": StatusRunning,
	"success":     StatusSuccess,
	"passed":      StatusSuccess,
	"completed":   StatusSuccess,
	"failed":      StatusFailed,
	"error":       StatusFailed,
	"skipped":     StatusSkipped,
	"ignore":      StatusSkipped,
}

// InvalidStatusError reports a status string that matched no known alias
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status: %q (must be one of: pending, running, success, failed, skipped)", e.Status)
}

// ParseStatus normalizes a user-supplied status string into a StepStatus.
// Matching is case-insensitive and alias-tolerant ("passed" -> success,
// "in_progress" -> running, and so on).
func ParseStatus(s string) (StepStatus, error) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", &InvalidStatusError{Status: s}
	}
	return status, nil
}

// IsTerminal reports whether no further transition is expected
func (s StepStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Emoji returns the marker used when rendering this status in an embed
func (s StepStatus) Emoji() string {
	switch s {
	case StatusSuccess:
		return "✅"
	case StatusFailed:
		return "❌"
	case StatusSkipped:
		return "⏭️"
	case StatusRunning:
		return "🔄"
	default:
		return "⏳"
	}
}

// InfoPair is a single key/value annotation attached to a step.
// It serializes as a 2-element JSON array to match the on-disk format.
type InfoPair [2]string

// Key returns the annotation key
func (p InfoPair) Key() string { return p[0] }

// Value returns the annotation value
func (p InfoPair) Value() string { return p[1] }

// StepRecord is one observed pipeline step
type StepRecord struct {
	Number         int        `json:"number"`
	Name           string     `json:"name"`
	Status         StepStatus `json:"status"`
	AdditionalInfo []InfoPair `json:"additional_info"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Duration is the time from first observation to completion.
// Returns zero and false while the step is still in progress.
func (s *StepRecord) Duration() (time.Duration, bool) {
	if s.CompletedAt == nil {
		return 0, false
	}
	return s.CompletedAt.Sub(s.StartedAt), true
}

// FormatDuration renders the step duration as a "(+2.3s)" suffix,
// or an empty string while the step is in progress
func (s *StepRecord) FormatDuration() string {
	d, ok := s.Duration()
	if !ok {
		return ""
	}

	millis := d.Milliseconds()
	if millis < 1000 {
		return fmt.Sprintf("(+%dms)", millis)
	}
	seconds := millis / 1000
	remaining := millis % 1000
	if remaining == 0 {
		return fmt.Sprintf("(+%ds)", seconds)
	}
	return fmt.Sprintf("(+%d.%ds)", seconds, remaining)
}

// FormatLine renders the step as a single embed line:
// "✅ 1. Build (+5s) - dur:5s, cache:hit"
func (s *StepRecord) FormatLine() string {
	parts := []string{fmt.Sprintf("%d. %s", s.Number, s.Name)}

	if duration := s.FormatDuration(); duration != "" {
		parts = append(parts, duration)
	}

	if len(s.AdditionalInfo) > 0 {
		info := make([]string, 0, len(s.AdditionalInfo))
		for _, pair := range s.AdditionalInfo {
			info = append(info, fmt.Sprintf("%s:%s", pair.Key(), pair.Value()))
		}
		parts = append(parts, fmt.Sprintf("- %s", strings.Join(info, ", ")))
	}

	return fmt.Sprintf("%s %s", s.Status.Emoji(), strings.Join(parts, " "))
}

// PipelineState is the sole persisted aggregate: everything needed to keep
// editing the same Discord message across separate CLI invocations
type PipelineState struct {
	MessageID  string       `json:"message_id"`
	PRNumber   int          `json:"pr_number"`
	PRTitle    string       `json:"pr_title"`
	Author     string       `json:"author"`
	Repository string       `json:"repository"`
	Branch     string       `json:"branch"`
	Steps      []StepRecord `json:"steps"`
	StartedAt  time.Time    `json:"pipeline_started_at"`
}

// NewPipelineState builds a fresh state for a pipeline that is starting now
func NewPipelineState(prNumber int, prTitle, author, repository, branch string) *PipelineState {
	return &PipelineState{
		PRNumber:   prNumber,
		PRTitle:    prTitle,
		Author:     author,
		Repository: repository,
		Branch:     branch,
		Steps:      []StepRecord{},
		StartedAt:  time.Now().UTC(),
	}
}

// FindStep returns the index of the step with the given number, or -1
func (p *PipelineState) FindStep(number int) int {
	for i := range p.Steps {
		if p.Steps[i].Number == number {
			return i
		}
	}
	return -1
}

// ApplyStep merges a step observation into the state. A step observed for
// the first time is appended (insertion order is discovery order); a
// re-observed step has its name, status and info overwritten. Entering a
// terminal status stamps CompletedAt once; the first stamp wins, so
// re-reporting a finished step does not move its recorded duration.
func (p *PipelineState) ApplyStep(number int, name string, status StepStatus, info []InfoPair) {
	now := time.Now().UTC()

	idx := p.FindStep(number)
	if idx < 0 {
		p.Steps = append(p.Steps, StepRecord{
			Number:         number,
			Name:           name,
			Status:         status,
			AdditionalInfo: info,
			StartedAt:      now,
		})
		idx = len(p.Steps) - 1
	} else {
		step := &p.Steps[idx]
		step.Name = name
		step.Status = status
		step.AdditionalInfo = info
	}

	if status.IsTerminal() && p.Steps[idx].CompletedAt == nil {
		p.Steps[idx].CompletedAt = &now
	}
}

// CountByStatus returns how many steps currently have the given status
func (p *PipelineState) CountByStatus(status StepStatus) int {
	count := 0
	for i := range p.Steps {
		if p.Steps[i].Status == status {
			count++
		}
	}
	return count
}

// CompletedCount returns how many steps reached a terminal status
func (p *PipelineState) CompletedCount() int {
	count := 0
	for i := range p.Steps {
		if p.Steps[i].Status.IsTerminal() {
			count++
		}
	}
	return count
}

// Outcome summarizes the whole pipeline: failed if any step failed, a
// skipped variant if some steps were skipped but none failed, success
// otherwise
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSuccessWithSkips
	OutcomeFailed
)

// Outcome computes the overall pipeline result from the recorded steps
func (p *PipelineState) Outcome() Outcome {
	if p.CountByStatus(StatusFailed) > 0 {
		return OutcomeFailed
	}
	if p.CountByStatus(StatusSkipped) > 0 {
		return OutcomeSuccessWithSkips
	}
	return OutcomeSuccess
}

// Elapsed is the time since the pipeline started
func (p *PipelineState) Elapsed() time.Duration {
	return time.Since(p.StartedAt)
}

// FormatElapsed renders a duration as "3m 42s" or "42s"
func FormatElapsed(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
