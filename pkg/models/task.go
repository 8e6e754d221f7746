package models

import "time"

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task completed successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed. Failures are terminal;
	// there is no automatic retry.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskType represents the kind of background work a task performs.
type TaskType string

const (
	// TaskTypeResearch runs research-capable agents and aggregates findings.
	TaskTypeResearch TaskType = "research"
	// TaskTypeValidation runs validation-capable agents and computes consensus.
	TaskTypeValidation TaskType = "validation"
	// TaskTypeEnrichment applies suggested graph mutations to the store.
	TaskTypeEnrichment TaskType = "enrichment"
	// TaskTypeEnsemble evaluates one node with every matching agent and
	// statistically combines the results.
	TaskTypeEnsemble TaskType = "ensemble"
)

// Valid returns true if the type is a known value.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeResearch, TaskTypeValidation, TaskTypeEnrichment, TaskTypeEnsemble:
		return true
	default:
		return false
	}
}

// Task represents an asynchronously scheduled unit of background work.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Type is the kind of work the task performs.
	Type TaskType `json:"type"`
	// NodeID is the target node.
	NodeID string `json:"node_id"`
	// Parameters holds type-specific inputs (algorithm ID, suggestions, ...).
	Parameters map[string]any `json:"parameters,omitempty"`
	// Priority is stored metadata. Admission is arrival-ordered and does not
	// consult it; see the scheduler docs.
	Priority int `json:"priority"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// CreatedAt is when the task was scheduled.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the task began running, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result holds the handler's output for completed tasks.
	Result map[string]any `json:"result,omitempty"`
	// Error contains the failure message for failed tasks.
	Error string `json:"error,omitempty"`
}

// EnsembleMetrics summarizes agreement across an ensemble of agent results.
// It is derived at task completion and never persisted.
type EnsembleMetrics struct {
	// MeanConfidence is the arithmetic mean of result confidences.
	MeanConfidence float64 `json:"mean_confidence"`
	// StdDev is the population standard deviation of result confidences.
	StdDev float64 `json:"std_dev"`
	// AgreementScore is 1 - StdDev/MeanConfidence (0 when the mean is 0).
	AgreementScore float64 `json:"agreement_score"`
	// DisagreementLevel is 1 - AgreementScore.
	DisagreementLevel float64 `json:"disagreement_level"`
	// Consensus holds the confidence-weighted value per numeric result field.
	Consensus map[string]float64 `json:"consensus,omitempty"`
}
