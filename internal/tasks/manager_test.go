package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nexus-ukg/nexus/internal/algorithm"
	"github.com/nexus-ukg/nexus/internal/axes"
	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/internal/orchestrator"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// memStore is an in-memory KnowledgeStore. gate, when set, blocks GetNode
// until released so tests can observe concurrency.
type memStore struct {
	mu      sync.Mutex
	nodes   map[string]*models.Node
	edges   []models.Edge
	agents  []models.Agent
	pillars []models.PillarLevel

	gate chan struct{}

	inFlight    int
	maxInFlight int
}

func newMemStore() *memStore {
	return &memStore{nodes: map[string]*models.Node{}}
}

func (m *memStore) trackEnter() {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()
}

func (m *memStore) trackLeave() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}

func (m *memStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	m.trackEnter()
	defer m.trackLeave()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := node.Clone()
	m.nodes[node.ID] = &cp
	return nil
}

func (m *memStore) CreateEdge(ctx context.Context, edge *models.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, *edge)
	return nil
}

func (m *memStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return append([]models.Agent(nil), m.agents...), nil
}

func (m *memStore) ListPillarLevels(ctx context.Context) ([]models.PillarLevel, error) {
	return append([]models.PillarLevel(nil), m.pillars...), nil
}

func (m *memStore) SaveAgentTrace(ctx context.Context, agentID string, trace []*models.ProcessingResult) error {
	return nil
}

func (m *memStore) ApplyBatch(ctx context.Context, fn func(store.BatchWriter) error) error {
	return fn(memBatch{m})
}

type memBatch struct{ m *memStore }

func (w memBatch) SaveNode(node *models.Node) error {
	return w.m.SaveNode(context.Background(), node)
}

func (w memBatch) CreateEdge(edge *models.Edge) error {
	return w.m.CreateEdge(context.Background(), edge)
}

func (w memBatch) UpdateAxisValues(nodeID string, updates map[string]models.AxisData) error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	n, ok := w.m.nodes[nodeID]
	if !ok {
		return store.ErrNotFound
	}
	for axis, data := range updates {
		n.AxisValues[axis] = data
	}
	return nil
}

// fakeBackend returns a canned reply.
type fakeBackend struct {
	text string
	err  error
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string, contextData map[string]any, temperature float64, maxTokens int) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Confidence: 0.9}, nil
}

func seededStore() *memStore {
	st := newMemStore()
	st.pillars = []models.PillarLevel{{ID: "PL01", Name: "Artificial Intelligence"}}
	st.agents = []models.Agent{
		{
			ID:                  "a1",
			Name:                "AI Expert",
			DomainCoverage:      []string{"PL01"},
			AlgorithmsAvailable: []string{"ai_knowledge_discovery"},
			Capabilities:        []string{"research", "validation"},
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

func testManager(t *testing.T, st *memStore, cfg Config) *Manager {
	t.Helper()

	orch := orchestrator.New(orchestrator.Config{
		Store:      st,
		Algorithms: algorithm.NewRegistry(),
		Axes:       axes.NewRegistry(),
		Logger:     orchestrator.NopLogger(),
	})
	if err := orch.LoadAgents(context.Background()); err != nil {
		t.Fatalf("LoadAgents failed: %v", err)
	}

	cfg.Orchestrator = orch
	cfg.Store = st
	if cfg.Logger == nil {
		cfg.Logger = orchestrator.NopLogger()
	}
	return NewManager(cfg)
}

// waitAllTerminal polls until no task is pending or running.
func waitAllTerminal(t *testing.T, m *Manager, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		pending := len(m.List(models.TaskStatusPending))
		running := len(m.List(models.TaskStatusRunning))
		if pending == 0 && running == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("tasks still active after %s: %d pending, %d running", timeout, pending, running)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduleUnknownType(t *testing.T) {
	m := testManager(t, seededStore(), Config{})
	if _, err := m.Schedule("reticulate", "node-1", nil, 0); !errors.Is(err, ErrUnknownTaskType) {
		t.Errorf("expected ErrUnknownTaskType, got %v", err)
	}
}

func TestEnsembleTaskCompletes(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	task, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, ok := m.Get(task.ID)
	if !ok {
		t.Fatal("task disappeared")
	}
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %s (%s), want completed", final.Status, final.Error)
	}
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("expected start and completion timestamps")
	}

	metrics, ok := final.Result["metrics"].(*models.EnsembleMetrics)
	if !ok {
		t.Fatalf("expected ensemble metrics in result, got %T", final.Result["metrics"])
	}
	// The single agent agrees with itself.
	if metrics.DisagreementLevel != 0 {
		t.Errorf("disagreement = %v, want 0", metrics.DisagreementLevel)
	}
}

func TestTaskFailsForMissingNode(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	task, err := m.Schedule(models.TaskTypeEnsemble, "node-404", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if final.Error == "" {
		t.Error("expected an error message on the failed task")
	}
}

func TestConcurrencyBounded(t *testing.T) {
	st := seededStore()
	st.gate = make(chan struct{})
	m := testManager(t, st, Config{MaxConcurrent: 5})

	const total = 12
	for i := 0; i < total; i++ {
		if _, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0); err != nil {
			t.Fatalf("Schedule %d failed: %v", i, err)
		}
	}

	// All slots fill; the rest stay pending.
	deadline := time.Now().Add(2 * time.Second)
	for m.RunningCount() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d tasks running", m.RunningCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := m.RunningCount(); got != 5 {
		t.Errorf("running = %d, want 5", got)
	}
	if got := len(m.List(models.TaskStatusPending)); got != total-5 {
		t.Errorf("pending = %d, want %d", got, total-5)
	}

	close(st.gate)
	waitAllTerminal(t, m, 5*time.Second)

	if got := len(m.List(models.TaskStatusCompleted)); got != total {
		t.Errorf("completed = %d, want %d", got, total)
	}

	st.mu.Lock()
	maxSeen := st.maxInFlight
	st.mu.Unlock()
	if maxSeen > 5 {
		t.Errorf("observed %d concurrent store reads, cap is 5", maxSeen)
	}
}

func TestEnsembleCascadesToValidation(t *testing.T) {
	// Negative threshold: every ensemble cascades.
	m := testManager(t, seededStore(), Config{DisagreementThreshold: -1})

	task, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("ensemble status = %s (%s)", final.Status, final.Error)
	}
	if _, ok := final.Result["validation_task_id"]; !ok {
		t.Error("expected a cascaded validation task ID in the result")
	}

	validations := 0
	for _, tk := range m.List("") {
		if tk.Type == models.TaskTypeValidation {
			validations++
			if tk.Status != models.TaskStatusCompleted {
				t.Errorf("validation status = %s (%s)", tk.Status, tk.Error)
			}
		}
	}
	if validations != 1 {
		t.Errorf("expected exactly 1 cascaded validation task, got %d", validations)
	}
}

func TestResearchCascadesToEnrichment(t *testing.T) {
	st := seededStore()
	backend := &fakeBackend{text: `{"suggestions": [
		{"type": "new_node", "label": "Transformers", "relation_type": "related_to", "confidence": 0.9},
		{"type": "new_node", "label": "Attention", "confidence": 0.8},
		{"type": "update_axis", "confidence": 0.7, "updates": {"semantic_density": [0.6]}}
	]}`}
	m := testManager(t, st, Config{Backend: backend})

	task, err := m.Schedule(models.TaskTypeResearch, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("research status = %s (%s)", final.Status, final.Error)
	}
	if _, ok := final.Result["enrichment_task_id"]; !ok {
		t.Fatal("expected a cascaded enrichment task ID")
	}

	enrichments := m.List("")
	found := 0
	for _, tk := range enrichments {
		if tk.Type == models.TaskTypeEnrichment {
			found++
			if tk.Status != models.TaskStatusCompleted {
				t.Errorf("enrichment status = %s (%s)", tk.Status, tk.Error)
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly 1 enrichment task, got %d", found)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Two new nodes plus the original.
	if len(st.nodes) != 3 {
		t.Errorf("expected 3 nodes after enrichment, got %d", len(st.nodes))
	}
	if len(st.edges) != 2 {
		t.Errorf("expected 2 edges after enrichment, got %d", len(st.edges))
	}
	if got := st.nodes["node-1"].AxisValues["semantic_density"].Values; len(got) != 1 || got[0] != 0.6 {
		t.Errorf("axis update not applied: %v", got)
	}
}

func TestResearchWithoutBackend(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	task, err := m.Schedule(models.TaskTypeResearch, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("research status = %s (%s)", final.Status, final.Error)
	}
	for _, tk := range m.List("") {
		if tk.Type == models.TaskTypeEnrichment {
			t.Error("no suggestions must mean no enrichment cascade")
		}
	}
}

func TestEnrichmentSkipsMalformedSuggestions(t *testing.T) {
	st := seededStore()
	m := testManager(t, st, Config{})

	params := map[string]any{
		"suggestions": []llm.Suggestion{
			{Type: "new_node", Label: "Valid", Confidence: 0.9},
			{Type: "mystery", Confidence: 0.5},
			{Type: "new_node", Confidence: 0.5}, // no label
		},
	}
	task, err := m.Schedule(models.TaskTypeEnrichment, "node-1", params, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %s (%s)", final.Status, final.Error)
	}
	if final.Result["applied"] != 1 || final.Result["skipped"] != 2 {
		t.Errorf("applied/skipped = %v/%v, want 1/2", final.Result["applied"], final.Result["skipped"])
	}
}

func TestValidationConsensus(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	task, err := m.Schedule(models.TaskTypeValidation, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %s (%s)", final.Status, final.Error)
	}
	if final.Result["status"] != "validated" {
		t.Errorf("result status = %v, want validated", final.Result["status"])
	}
	consensus, ok := final.Result["consensus"].(map[string]float64)
	if !ok || len(consensus) == 0 {
		t.Errorf("expected a non-empty consensus, got %v", final.Result["consensus"])
	}
	mean, ok := final.Result["mean_confidence"].(float64)
	if !ok || mean <= 0 || mean > 1 {
		t.Errorf("mean_confidence = %v, want a value in (0, 1]", final.Result["mean_confidence"])
	}
}

func TestPauseDefersAdmission(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	m.Pause()
	task, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	paused, _ := m.Get(task.ID)
	if paused.Status != models.TaskStatusPending {
		t.Fatalf("status while paused = %s, want pending", paused.Status)
	}

	m.Resume()
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Errorf("status after resume = %s (%s)", final.Status, final.Error)
	}
}

func TestShutdownRejectsNewTasks(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if _, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0); err == nil {
		t.Error("expected Schedule to fail after Shutdown")
	}
}

func TestListNewestFirst(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := m.Schedule(models.TaskTypeEnsemble, "node-1", nil, i)
		if err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
		ids = append(ids, task.ID)
		time.Sleep(2 * time.Millisecond)
	}
	waitAllTerminal(t, m, 2*time.Second)

	all := m.List("")
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	if all[0].ID != ids[2] {
		t.Errorf("expected newest first, got %s", fmt.Sprint(all[0].ID))
	}
}
