package domain

import "time"

// RunStatus is the lifecycle status of a persisted run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Result is the outcome of a successful execution.
// Medium.Value holds a map[string]any keyed by the Egress output keys.
type Result struct {
	Medium      Medium
	Steps       int
	Environment Environment
}

// Output returns the Egress mapping carried by the result.
func (r *Result) Output() map[string]any {
	out, _ := r.Medium.Value.(map[string]any)
	return out
}

// RunRecord captures one execution for persistence and reporting.
type RunRecord struct {
	ID          string         `json:"id"`
	Alignment   string         `json:"alignment,omitempty"`
	Instruction string         `json:"instruction,omitempty"`
	Status      RunStatus      `json:"status"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	Steps       int            `json:"steps"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Finished reports whether the run reached a final status.
func (r *RunRecord) Finished() bool {
	return r.Status == RunSucceeded || r.Status == RunFailed
}
