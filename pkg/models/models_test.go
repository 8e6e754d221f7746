package models

import "testing"

func TestNodeCloneIsDeep(t *testing.T) {
	n := Node{
		ID:            "n1",
		Label:         "Original",
		PillarLevelID: "PL01",
		AxisValues: map[string]AxisData{
			"pillar_function":  {Values: []float64{0.8, 0.6}, Weights: []float64{2, 1}},
			"semantic_density": {Values: []float64{0.3}},
		},
	}

	cp := n.Clone()
	cp.Label = "Copy"
	cp.AxisValues["pillar_function"].Values[0] = 99
	cp.AxisValues["new_axis"] = AxisData{Values: []float64{1}}

	if n.Label != "Original" {
		t.Errorf("label mutated through clone: %q", n.Label)
	}
	if n.AxisValues["pillar_function"].Values[0] != 0.8 {
		t.Errorf("values slice shared with clone: %v", n.AxisValues["pillar_function"].Values)
	}
	if _, ok := n.AxisValues["new_axis"]; ok {
		t.Error("axis map shared with clone")
	}
	if got := cp.AxisValues["semantic_density"]; got.Weights != nil {
		t.Errorf("clone invented weights: %v", got.Weights)
	}
}

func TestTaskStatusValid(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []TaskStatus{"", "cancelled", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestTaskTypeValid(t *testing.T) {
	for _, tt := range []TaskType{TaskTypeResearch, TaskTypeValidation, TaskTypeEnrichment, TaskTypeEnsemble} {
		if !tt.Valid() {
			t.Errorf("%s should be valid", tt)
		}
	}
	if TaskType("discovery").Valid() {
		t.Error("discovery should be invalid")
	}
}

func TestAgentStateValid(t *testing.T) {
	for _, s := range []AgentState{AgentStateIdle, AgentStateProcessing, AgentStateValidating, AgentStateResearching, AgentStateError} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if AgentState("sleeping").Valid() {
		t.Error("sleeping should be invalid")
	}
}

func TestAgentCapabilityChecks(t *testing.T) {
	a := Agent{
		DomainCoverage:      []string{"PL01", "PL04"},
		AlgorithmsAvailable: []string{"ai_knowledge_discovery"},
		Capabilities:        []string{"research"},
	}

	if !a.HasAlgorithm("ai_knowledge_discovery") || a.HasAlgorithm("risk_assessment") {
		t.Error("HasAlgorithm mismatch")
	}
	if !a.CoversPillar("PL04") || a.CoversPillar("PL02") {
		t.Error("CoversPillar mismatch")
	}
	if !a.HasCapability("research") || a.HasCapability("validation") {
		t.Error("HasCapability mismatch")
	}
}
