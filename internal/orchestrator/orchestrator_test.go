package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/nexus-ukg/nexus/internal/algorithm"
	"github.com/nexus-ukg/nexus/internal/axes"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// memStore is an in-memory KnowledgeStore for tests.
type memStore struct {
	nodes   map[string]*models.Node
	agents  []models.Agent
	pillars []models.PillarLevel
	traces  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		nodes:  map[string]*models.Node{},
		traces: map[string]int{},
	}
}

func (m *memStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := n.Clone()
	return &cp, nil
}

func (m *memStore) GetNeighbors(ctx context.Context, id string) ([]models.Node, error) {
	return nil, nil
}

func (m *memStore) SaveNode(ctx context.Context, node *models.Node) error {
	cp := node.Clone()
	m.nodes[node.ID] = &cp
	return nil
}

func (m *memStore) CreateEdge(ctx context.Context, edge *models.Edge) error { return nil }

func (m *memStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return append([]models.Agent(nil), m.agents...), nil
}

func (m *memStore) ListPillarLevels(ctx context.Context) ([]models.PillarLevel, error) {
	return append([]models.PillarLevel(nil), m.pillars...), nil
}

func (m *memStore) SaveAgentTrace(ctx context.Context, agentID string, trace []*models.ProcessingResult) error {
	m.traces[agentID] = len(trace)
	return nil
}

func (m *memStore) ApplyBatch(ctx context.Context, fn func(store.BatchWriter) error) error {
	return fn(batchWriter{m})
}

type batchWriter struct{ m *memStore }

func (w batchWriter) SaveNode(node *models.Node) error {
	return w.m.SaveNode(context.Background(), node)
}
func (w batchWriter) CreateEdge(edge *models.Edge) error { return nil }
func (w batchWriter) UpdateAxisValues(nodeID string, updates map[string]models.AxisData) error {
	n, ok := w.m.nodes[nodeID]
	if !ok {
		return store.ErrNotFound
	}
	for axis, data := range updates {
		n.AxisValues[axis] = data
	}
	return nil
}

func testOrchestrator(t *testing.T, st *memStore) *Orchestrator {
	t.Helper()
	o := New(Config{
		Store:      st,
		Algorithms: algorithm.NewRegistry(),
		Axes:       axes.NewRegistry(),
		Logger:     NopLogger(),
	})
	if err := o.LoadAgents(context.Background()); err != nil {
		t.Fatalf("LoadAgents failed: %v", err)
	}
	return o
}

func seededStore() *memStore {
	st := newMemStore()
	st.pillars = []models.PillarLevel{
		{ID: "PL01", Name: "Artificial Intelligence"},
		{ID: "PL02", Name: "Risk Management"},
	}
	st.agents = []models.Agent{
		{
			ID:                  "a1",
			Name:                "AI Expert",
			DomainCoverage:      []string{"PL01"},
			AlgorithmsAvailable: []string{"ai_knowledge_discovery", "risk_assessment"},
		},
		{
			ID:                  "a2",
			Name:                "Risk Analyst",
			DomainCoverage:      []string{"PL01", "PL02"},
			AlgorithmsAvailable: []string{"risk_assessment"},
		},
	}
	st.nodes["node-1"] = &models.Node{
		ID:            "node-1",
		Label:         "Neural Networks",
		PillarLevelID: "PL01",
		AxisValues: map[string]models.AxisData{
			"pillar_function": {Values: []float64{0.8}},
		},
	}
	return st
}

func TestLoadAgentsReplacesPool(t *testing.T) {
	st := seededStore()
	o := testOrchestrator(t, st)

	if got := len(o.Agents()); got != 2 {
		t.Fatalf("expected 2 agents, got %d", got)
	}

	st.agents = st.agents[:1]
	if err := o.LoadAgents(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := len(o.Agents()); got != 1 {
		t.Errorf("expected pool replaced wholesale, got %d agents", got)
	}
}

func TestValidateNode(t *testing.T) {
	o := testOrchestrator(t, seededStore())

	valid := models.Node{
		ID:            "n",
		Label:         "L",
		PillarLevelID: "PL01",
		AxisValues: map[string]models.AxisData{
			"pillar_function": {Values: []float64{0.5}},
		},
	}

	tests := []struct {
		name   string
		mutate func(*models.Node)
	}{
		{"missing id", func(n *models.Node) { n.ID = "" }},
		{"missing label", func(n *models.Node) { n.Label = "" }},
		{"missing pillar", func(n *models.Node) { n.PillarLevelID = "" }},
		{"unknown pillar", func(n *models.Node) { n.PillarLevelID = "PL99" }},
		{"no axis values", func(n *models.Node) { n.AxisValues = nil }},
		{"unknown axis", func(n *models.Node) {
			n.AxisValues = map[string]models.AxisData{"bogus": {Values: []float64{0.5}}}
		}},
		{"out of range", func(n *models.Node) {
			n.AxisValues = map[string]models.AxisData{"pillar_function": {Values: []float64{2.0}}}
		}},
	}

	if err := o.ValidateNode(&valid); err != nil {
		t.Fatalf("valid node rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid.Clone()
			tt.mutate(&n)
			err := o.ValidateNode(&n)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestProcessNodeSkipsIncapableAgents(t *testing.T) {
	st := seededStore()
	o := testOrchestrator(t, st)

	node, _ := st.GetNode(context.Background(), "node-1")
	results, err := o.ProcessNode(context.Background(), *node, "ai_knowledge_discovery")
	if err != nil {
		t.Fatalf("ProcessNode failed: %v", err)
	}

	// Only the AI Expert has the algorithm; the Risk Analyst is skipped.
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].AgentName != "AI Expert" {
		t.Errorf("unexpected agent %s", results[0].AgentName)
	}
	if !results[0].Success {
		t.Errorf("expected success, got error %q", results[0].Error)
	}

	// The dispatch persisted the agent's trace.
	if st.traces["a1"] == 0 {
		t.Error("expected agent trace to be persisted")
	}
}

func TestProcessNodeZeroCapableAgents(t *testing.T) {
	st := seededStore()
	st.nodes["node-2"] = &models.Node{
		ID:            "node-2",
		Label:         "Operational Risk",
		PillarLevelID: "PL02",
		AxisValues: map[string]models.AxisData{
			"pillar_function": {Values: []float64{0.4}},
		},
	}
	o := testOrchestrator(t, st)

	node, _ := st.GetNode(context.Background(), "node-2")
	// Only the Risk Analyst covers PL02 and it lacks this algorithm.
	results, err := o.ProcessNode(context.Background(), *node, "ai_knowledge_discovery")
	if err != nil {
		t.Fatalf("expected nil error for zero capable agents, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result list, got %d", len(results))
	}
}

func TestProcessNodeUnknownAlgorithm(t *testing.T) {
	st := seededStore()
	o := testOrchestrator(t, st)

	node, _ := st.GetNode(context.Background(), "node-1")
	if _, err := o.ProcessNode(context.Background(), *node, "made_up"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestProcessNodeAgentFilter(t *testing.T) {
	st := seededStore()
	o := testOrchestrator(t, st)

	node, _ := st.GetNode(context.Background(), "node-1")
	results, err := o.ProcessNode(context.Background(), *node, "risk_assessment", "Risk Analyst")
	if err != nil {
		t.Fatalf("ProcessNode failed: %v", err)
	}
	if len(results) != 1 || results[0].AgentName != "Risk Analyst" {
		t.Errorf("expected only the named agent, got %+v", results)
	}
}

func TestHistoryFiltering(t *testing.T) {
	st := seededStore()
	o := testOrchestrator(t, st)

	node, _ := st.GetNode(context.Background(), "node-1")
	if _, err := o.ProcessNode(context.Background(), *node, "ai_knowledge_discovery"); err != nil {
		t.Fatalf("ProcessNode failed: %v", err)
	}
	if _, err := o.ProcessNode(context.Background(), *node, "risk_assessment"); err != nil {
		t.Fatalf("ProcessNode failed: %v", err)
	}

	all := o.History("", "")
	if len(all) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(all))
	}

	byNode := o.History("node-1", "")
	if len(byNode) != 2 {
		t.Errorf("node filter: expected 2 entries, got %d", len(byNode))
	}

	byAgent := o.History("", "Risk Analyst")
	if len(byAgent) != 1 || byAgent[0].AlgorithmID != "risk_assessment" {
		t.Errorf("agent filter: unexpected entries %+v", byAgent)
	}

	none := o.History("node-404", "")
	if len(none) != 0 {
		t.Errorf("expected no entries for unknown node, got %d", len(none))
	}
}

func TestHistoryRingBounded(t *testing.T) {
	ring := newHistoryRing(3)
	for i := 0; i < 5; i++ {
		ring.append(HistoryEntry{NodeID: "n", AlgorithmID: string(rune('a' + i))})
	}
	got := ring.filter("", "")
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].AlgorithmID != "c" {
		t.Errorf("expected oldest surviving entry 'c', got %q", got[0].AlgorithmID)
	}
}
