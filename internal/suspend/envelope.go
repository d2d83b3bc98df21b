// Package suspend defines the serializable suspension envelope shapes
// (spec.md §4.8, §6 "Suspension kinds"). It holds data only; the resume
// logic itself lives in internal/engine, which is the sole mutator of an
// Execution.
package suspend

import "github.com/prana-run/prana/internal/domain"

// Envelope is what a suspended NodeExecution carries: enough for an
// outside scheduler to know why execution paused and how to wake it.
type Envelope struct {
	Kind domain.SuspensionKind
	Data map[string]any
}

// RetryData is the well-known shape of a SuspensionRetry envelope's Data.
type RetryData struct {
	AttemptNumber int    `json:"attempt_number"`
	MaxAttempts   int    `json:"max_attempts"`
	ResumeAtUnix  int64  `json:"resume_at"`
	OriginalError string `json:"original_error"`
}

// ToMap renders RetryData into the map[string]any shape a Suspension's
// Data field carries, keyed exactly as the JSON tags above.
func (d RetryData) ToMap() map[string]any {
	return map[string]any{
		"attempt_number": d.AttemptNumber,
		"max_attempts":   d.MaxAttempts,
		"resume_at":      d.ResumeAtUnix,
		"original_error": d.OriginalError,
	}
}

// SubWorkflowData is the well-known shape of a sub_workflow_* envelope's
// Data (spec.md §4.8).
type SubWorkflowData struct {
	WorkflowID      string                           `json:"workflow_id"`
	ExecutionMode   domain.SubWorkflowExecutionMode   `json:"execution_mode"`
	BatchMode       domain.SubWorkflowBatchMode       `json:"batch_mode"`
	TimeoutMs       int                              `json:"timeout_ms"`
	FailureStrategy domain.SubWorkflowFailureStrategy `json:"failure_strategy"`
	InputData       map[string]any                   `json:"input_data"`
}

// ToMap renders SubWorkflowData into the map[string]any shape a
// Suspension's Data field carries.
func (d SubWorkflowData) ToMap() map[string]any {
	return map[string]any{
		"workflow_id":      d.WorkflowID,
		"execution_mode":   string(d.ExecutionMode),
		"batch_mode":       string(d.BatchMode),
		"timeout_ms":       d.TimeoutMs,
		"failure_strategy": string(d.FailureStrategy),
		"input_data":       d.InputData,
	}
}

// ResumePayload is what the outside caller supplies to re-enter a
// suspended node. Its shape depends on the suspension kind: for retry it's
// empty (the engine re-derives the attempt from the envelope); for
// sub-workflow kinds it matches spec.md §4.8's {status, output?, error?}.
type ResumePayload struct {
	Status string         `json:"status,omitempty"` // completed|failed|timeout, sub-workflow only
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`

	// Raw carries arbitrary resume data for non-sub-workflow suspension
	// kinds (e.g. a webhook payload); handlers receive it verbatim.
	Raw map[string]any `json:"raw,omitempty"`
}
