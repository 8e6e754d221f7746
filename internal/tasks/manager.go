// Package tasks implements the background task scheduler: research,
// validation, enrichment, and ensemble work items run asynchronously against
// the agent pool with bounded concurrency.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/internal/orchestrator"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/pkg/models"
)

const (
	// defaultMaxConcurrent bounds simultaneously running tasks.
	defaultMaxConcurrent = 5
	// defaultTaskTimeout bounds each task's wall-clock run.
	defaultTaskTimeout = 2 * time.Minute
	// defaultEnrichmentThreshold is the minimum suggestion count for a
	// research task to cascade into enrichment.
	defaultEnrichmentThreshold = 3
	// defaultDisagreementThreshold is the ensemble disagreement level above
	// which a validation task is cascaded.
	defaultDisagreementThreshold = 0.3
)

// ErrUnknownTaskType is returned when scheduling an unrecognized task type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Config holds the manager's dependencies and tuning knobs.
type Config struct {
	// Orchestrator dispatches nodes across the agent pool.
	Orchestrator *orchestrator.Orchestrator
	// Store is the graph persistence backend.
	Store store.KnowledgeStore
	// Backend generates research suggestions. Nil disables LLM-assisted
	// research; agent findings are still aggregated.
	Backend llm.ReasoningBackend
	// MaxConcurrent bounds simultaneously running tasks; 0 means 5.
	MaxConcurrent int
	// TaskTimeout bounds each task run; 0 means 2 minutes.
	TaskTimeout time.Duration
	// EnrichmentThreshold is the research-to-enrichment cascade minimum;
	// 0 means 3.
	EnrichmentThreshold int
	// DisagreementThreshold is the ensemble-to-validation cascade trigger;
	// 0 means 0.3, negative always cascades.
	DisagreementThreshold float64
	// Logger receives debug output. Nil disables logging.
	Logger *orchestrator.DebugLogger
}

// Manager schedules and runs background tasks.
//
// Admission is arrival-ordered: a task scheduled while all slots are busy
// stays Pending until Kick runs it. Slots release when a task reaches a
// terminal state, and every release kicks the pending queue.
type Manager struct {
	orch    *orchestrator.Orchestrator
	store   store.KnowledgeStore
	backend llm.ReasoningBackend
	logger  *orchestrator.DebugLogger

	maxConcurrent         int
	taskTimeout           time.Duration
	enrichmentThreshold   int
	disagreementThreshold float64

	mu      sync.Mutex
	tasks   map[string]*models.Task
	running map[string]struct{}
	pending []string
	paused  bool
	stopped bool

	wg sync.WaitGroup
}

// NewManager creates a task manager. Defaults apply for zero-valued knobs.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		orch:                  cfg.Orchestrator,
		store:                 cfg.Store,
		backend:               cfg.Backend,
		logger:                cfg.Logger,
		maxConcurrent:         cfg.MaxConcurrent,
		taskTimeout:           cfg.TaskTimeout,
		enrichmentThreshold:   cfg.EnrichmentThreshold,
		disagreementThreshold: cfg.DisagreementThreshold,
		tasks:                 map[string]*models.Task{},
		running:               map[string]struct{}{},
	}
	if m.maxConcurrent <= 0 {
		m.maxConcurrent = defaultMaxConcurrent
	}
	if m.taskTimeout <= 0 {
		m.taskTimeout = defaultTaskTimeout
	}
	if m.enrichmentThreshold <= 0 {
		m.enrichmentThreshold = defaultEnrichmentThreshold
	}
	if m.disagreementThreshold == 0 {
		m.disagreementThreshold = defaultDisagreementThreshold
	}
	return m
}

// Schedule registers a task and attempts to start it immediately. Tasks that
// find all slots busy stay Pending; Kick runs them when a slot frees.
func (m *Manager) Schedule(taskType models.TaskType, nodeID string, params map[string]any, priority int) (*models.Task, error) {
	if !taskType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	task := &models.Task{
		ID:         uuid.New().String(),
		Type:       taskType,
		NodeID:     nodeID,
		Parameters: params,
		Priority:   priority,
		Status:     models.TaskStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, errors.New("task manager stopped")
	}
	m.tasks[task.ID] = task
	m.pending = append(m.pending, task.ID)
	m.mu.Unlock()

	m.logger.Log("scheduled %s task %s for node %s", taskType, task.ID, nodeID)
	taskScheduled.WithLabelValues(string(taskType)).Inc()

	m.Kick()

	snap := m.snapshotLocked(task.ID)
	if snap != nil && snap.Status == models.TaskStatusPending {
		tasksDeferred.Inc()
	}
	return snap, nil
}

// Kick starts as many pending tasks as free slots allow, in arrival order.
// Priority is stored metadata and not consulted here.
func (m *Manager) Kick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.stopped {
		return
	}

	for len(m.pending) > 0 && len(m.running) < m.maxConcurrent {
		id := m.pending[0]
		m.pending = m.pending[1:]

		task, ok := m.tasks[id]
		if !ok || task.Status != models.TaskStatusPending {
			continue
		}

		now := time.Now().UTC()
		task.Status = models.TaskStatusRunning
		task.StartedAt = &now
		m.running[id] = struct{}{}
		tasksRunning.Inc()

		m.wg.Add(1)
		go m.run(id)
	}
}

// run executes one task to a terminal state and releases its slot.
func (m *Manager) run(id string) {
	defer m.wg.Done()
	defer m.release(id)

	m.mu.Lock()
	task := m.tasks[id]
	m.mu.Unlock()
	if task == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.taskTimeout)
	defer cancel()

	start := time.Now()
	result, err := m.execute(ctx, task)
	elapsed := time.Since(start)

	m.mu.Lock()
	now := time.Now().UTC()
	task.CompletedAt = &now
	if err != nil {
		task.Status = models.TaskStatusFailed
		task.Error = err.Error()
	} else {
		task.Status = models.TaskStatusCompleted
		task.Result = result
	}
	m.mu.Unlock()

	taskDuration.WithLabelValues(string(task.Type)).Observe(elapsed.Seconds())
	if err != nil {
		taskFailures.WithLabelValues(string(task.Type)).Inc()
		m.logger.Log("task %s (%s) failed after %s: %v", id, task.Type, elapsed.Round(time.Millisecond), err)
	} else {
		taskCompletions.WithLabelValues(string(task.Type)).Inc()
		m.logger.Log("task %s (%s) completed in %s", id, task.Type, elapsed.Round(time.Millisecond))
	}
}

// release frees the task's slot and kicks the pending queue.
func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.running, id)
	m.mu.Unlock()
	tasksRunning.Dec()
	m.Kick()
}

// execute routes a task to its handler.
func (m *Manager) execute(ctx context.Context, task *models.Task) (map[string]any, error) {
	switch task.Type {
	case models.TaskTypeResearch:
		return m.runResearch(ctx, task)
	case models.TaskTypeValidation:
		return m.runValidation(ctx, task)
	case models.TaskTypeEnrichment:
		return m.runEnrichment(ctx, task)
	case models.TaskTypeEnsemble:
		return m.runEnsemble(ctx, task)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
}

// Get returns a snapshot of the task with the given ID.
func (m *Manager) Get(id string) (*models.Task, bool) {
	t := m.snapshotLocked(id)
	return t, t != nil
}

// List returns snapshots of all tasks, optionally filtered by status, newest
// first.
func (m *Manager) List(status models.TaskStatus) []*models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Pause stops admitting pending tasks. Running tasks finish normally.
func (m *Manager) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
	m.logger.Log("task manager paused")
}

// Resume re-enables admission and kicks the pending queue.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
	m.logger.Log("task manager resumed")
	m.Kick()
}

// Shutdown stops accepting tasks and waits for running tasks to finish or the
// context to expire. Pending tasks are left Pending.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunningCount returns the number of currently running tasks.
func (m *Manager) RunningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

func (m *Manager) snapshotLocked(id string) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}
