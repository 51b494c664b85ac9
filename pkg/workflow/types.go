// Package workflow executes declarative workflow definitions against a
// registry of agent types: frontier scheduling over the dependency DAG,
// per-step error policies, conditional skipping, and aggregated results.
package workflow

import (
	"time"
)

// RunStatus is the lifecycle state of a whole run
type RunStatus string

const (
	RunPending            RunStatus = "pending"
	RunRunning            RunStatus = "running"
	RunCompleted          RunStatus = "completed"
	RunFailed             RunStatus = "failed"
	RunPartiallyCompleted RunStatus = "partially-completed"
)

// StepStatus is the lifecycle state of one step within a run. Every step
// reaches a terminal state (succeeded, failed or skipped) before the run
// itself finishes.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Terminal reports whether the status is final
func (s StepStatus) Terminal() bool {
	switch s {
	case StepSucceeded, StepFailed, StepSkipped:
		return true
	default:
		return false
	}
}

// StepError is the serializable failure record attached to a failed step
type StepError struct {
	Kind    string `json:"kind"`    // Taxonomy kind, see the agent package
	Message string `json:"message"` // Final attempt's error text
}

func (e *StepError) Error() string {
	return e.Message
}

// StepResult is the per-step outcome collected into the run result
type StepResult struct {
	StepID     string         `json:"step_id"`
	Agent      string         `json:"agent"`
	Status     StepStatus     `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      *StepError     `json:"error,omitempty"`
	Attempts   int            `json:"attempts"`
	SkipReason string         `json:"skip_reason,omitempty"`
	StartedAt  time.Time      `json:"started_at,omitzero"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
}

// Duration returns the wall-clock time the step spent running
func (r *StepResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ExecutionContext is the per-run mutable state, owned exclusively by
// the engine's scheduler while the run is in flight: step results keyed
// by step id and the outputs of succeeded steps, consulted for condition
// evaluation and input resolution. It is discarded once the run's
// ExecutionResult is produced.
type ExecutionContext struct {
	RunID     string
	Workflow  string
	Input     map[string]any
	Steps     map[string]*StepResult
	Outputs   map[string]map[string]any
	StartedAt time.Time
}

func newExecutionContext(runID, workflowName string, input map[string]any, stepCount int) *ExecutionContext {
	return &ExecutionContext{
		RunID:     runID,
		Workflow:  workflowName,
		Input:     input,
		Steps:     make(map[string]*StepResult, stepCount),
		Outputs:   make(map[string]map[string]any, stepCount),
		StartedAt: time.Now(),
	}
}

// Result seals the context into an immutable run result
func (c *ExecutionContext) Result(status RunStatus) *ExecutionResult {
	return &ExecutionResult{
		RunID:      c.RunID,
		Workflow:   c.Workflow,
		Status:     status,
		Steps:      c.Steps,
		StartedAt:  c.StartedAt,
		FinishedAt: time.Now(),
	}
}

// ExecutionResult aggregates one finished run. Steps holds an entry for
// every declared step, keyed by step id.
type ExecutionResult struct {
	RunID      string                 `json:"run_id"`
	Workflow   string                 `json:"workflow"`
	Status     RunStatus              `json:"status"`
	Steps      map[string]*StepResult `json:"steps"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Duration returns the wall-clock time of the whole run
func (r *ExecutionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether every step that ran succeeded
func (r *ExecutionResult) Succeeded() bool {
	return r.Status == RunCompleted
}

// FailedSteps returns the ids of failed steps in no particular order
func (r *ExecutionResult) FailedSteps() []string {
	var failed []string
	for id, step := range r.Steps {
		if step.Status == StepFailed {
			failed = append(failed, id)
		}
	}
	return failed
}
