package models

import "time"

// AgentState represents the current state of an agent.
type AgentState string

const (
	// AgentStateIdle indicates the agent is not processing anything.
	AgentStateIdle AgentState = "idle"
	// AgentStateProcessing indicates the agent is evaluating a node.
	AgentStateProcessing AgentState = "processing"
	// AgentStateValidating indicates the agent is validating results.
	AgentStateValidating AgentState = "validating"
	// AgentStateResearching indicates the agent is researching a gap.
	AgentStateResearching AgentState = "researching"
	// AgentStateError indicates the agent's last run ended abnormally.
	AgentStateError AgentState = "error"
)

// Valid returns true if the state is a known value.
func (s AgentState) Valid() bool {
	switch s {
	case AgentStateIdle, AgentStateProcessing, AgentStateValidating,
		AgentStateResearching, AgentStateError:
		return true
	default:
		return false
	}
}

// Agent is the persisted profile of a reasoning agent.
// The runtime state machine lives in internal/agent; this is what the
// knowledge store reads and writes.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Name is the human-readable agent name.
	Name string `json:"name"`
	// DomainCoverage lists the pillar codes this agent is an expert in.
	DomainCoverage []string `json:"domain_coverage"`
	// AlgorithmsAvailable lists the algorithm IDs this agent can apply.
	AlgorithmsAvailable []string `json:"algorithms_available"`
	// ConfidenceThresholds maps algorithm IDs to the minimum confidence
	// below which the agent treats a result as a gap.
	ConfidenceThresholds map[string]float64 `json:"confidence_thresholds,omitempty"`
	// Capabilities lists task modes this agent participates in
	// (e.g. "research", "validation").
	Capabilities []string `json:"capabilities,omitempty"`
	// State is the last recorded state of the agent.
	State AgentState `json:"state"`
	// CreatedAt is when the agent was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the agent was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAlgorithm returns true if the agent can apply the given algorithm.
func (a Agent) HasAlgorithm(algorithmID string) bool {
	for _, id := range a.AlgorithmsAvailable {
		if id == algorithmID {
			return true
		}
	}
	return false
}

// CoversPillar returns true if the agent's domain coverage includes the pillar.
func (a Agent) CoversPillar(pillarID string) bool {
	for _, p := range a.DomainCoverage {
		if p == pillarID {
			return true
		}
	}
	return false
}

// HasCapability returns true if the agent supports the given task mode.
func (a Agent) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
