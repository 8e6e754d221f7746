package models

import "time"

// AlgorithmOutput is the typed result of one algorithm execution.
type AlgorithmOutput struct {
	// Value is the scalar headline output of the algorithm.
	Value float64 `json:"value"`
	// Confidence is how certain the algorithm is about Value.
	Confidence float64 `json:"confidence"`
	// Details holds named per-axis or per-factor contributions.
	Details map[string]float64 `json:"details,omitempty"`
	// Findings lists qualitative observations (e.g. risk bands).
	Findings []string `json:"findings,omitempty"`
}

// ValidationReport records what an agent did about a detected gap.
type ValidationReport struct {
	// Status summarizes the outcome ("axis values imputed", ...).
	Status string `json:"status"`
	// Actions lists the individual steps taken.
	Actions []string `json:"actions,omitempty"`
}

// ProcessingResult is the immutable record of one agent invocation,
// top-level or recursive. Sub-call results hang off Subcalls, forming a tree
// whose depth never exceeds the configured recursion ceiling.
type ProcessingResult struct {
	// AgentID is the ID of the agent that produced this result.
	AgentID string `json:"agent_id"`
	// AgentName is the name of the agent that produced this result.
	AgentName string `json:"agent_name"`
	// PillarLevels is the agent's domain coverage at processing time.
	PillarLevels []string `json:"pillar_levels"`
	// AlgorithmID is the algorithm that was requested.
	AlgorithmID string `json:"algorithm_id"`
	// NodeID is the node that was evaluated.
	NodeID string `json:"node_id"`
	// StartTime is when processing began.
	StartTime time.Time `json:"start_time"`
	// RecursionDepth is how deep in the escalation chain this call ran.
	RecursionDepth int `json:"recursion_depth"`
	// Output is the algorithm result, nil when computation failed.
	Output *AlgorithmOutput `json:"output,omitempty"`
	// Confidence is the confidence of Output, 0 on any failure.
	Confidence float64 `json:"confidence"`
	// Actions is the ordered log of what the agent did.
	Actions []string `json:"actions"`
	// Validation records autonomous gap research, if any ran.
	Validation *ValidationReport `json:"validation,omitempty"`
	// Subcalls holds results of self-recursion and peer delegation.
	Subcalls []*ProcessingResult `json:"subcalls,omitempty"`
	// Error is set when the invocation ended abnormally. Errors are captured
	// here rather than propagated.
	Error string `json:"error,omitempty"`
}
