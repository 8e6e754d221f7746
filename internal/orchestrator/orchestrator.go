package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nexus-ukg/nexus/internal/agent"
	"github.com/nexus-ukg/nexus/internal/algorithm"
	"github.com/nexus-ukg/nexus/internal/axes"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// defaultMaxRecursion bounds the escalation depth of every dispatch.
const defaultMaxRecursion = 3

// ErrValidation is returned when a node fails structural validation.
// Use errors.Is to detect it.
var ErrValidation = errors.New("node validation failed")

// Config holds the orchestrator's dependencies.
type Config struct {
	// Store is the graph persistence backend.
	Store store.KnowledgeStore
	// Algorithms is the shared algorithm registry.
	Algorithms *algorithm.Registry
	// Axes is the shared axis registry.
	Axes *axes.Registry
	// MaxRecursion bounds escalation depth; 0 means the default of 3.
	MaxRecursion int
	// Logger receives debug output. Nil disables logging.
	Logger *DebugLogger
}

// DispatchResult records the outcome of one agent's run within a dispatch.
type DispatchResult struct {
	// AgentName identifies the agent that ran.
	AgentName string `json:"agent_name"`
	// Success is false only when the agent's result carries an internal error.
	Success bool `json:"success"`
	// Result is the agent's full processing result.
	Result *models.ProcessingResult `json:"result,omitempty"`
	// Error holds the failure description when Success is false.
	Error string `json:"error,omitempty"`
	// Timestamp is when this agent finished.
	Timestamp time.Time `json:"timestamp"`
}

// Orchestrator owns the agent pool and dispatches nodes across it.
// Agents are loaded from the store and replaced wholesale on reload.
type Orchestrator struct {
	store        store.KnowledgeStore
	algorithms   *algorithm.Registry
	axes         *axes.Registry
	maxRecursion int
	logger       *DebugLogger

	mu      sync.RWMutex
	agents  []*agent.Agent
	pillars map[string]models.PillarLevel

	history *historyRing
}

// New creates an orchestrator. Call LoadAgents before dispatching.
func New(cfg Config) *Orchestrator {
	maxRecursion := cfg.MaxRecursion
	if maxRecursion <= 0 {
		maxRecursion = defaultMaxRecursion
	}
	return &Orchestrator{
		store:        cfg.Store,
		algorithms:   cfg.Algorithms,
		axes:         cfg.Axes,
		maxRecursion: maxRecursion,
		logger:       cfg.Logger,
		pillars:      map[string]models.PillarLevel{},
		history:      newHistoryRing(maxHistoryEntries),
	}
}

// LoadAgents replaces the agent pool with the profiles currently persisted in
// the store, and refreshes the pillar catalog. Existing agents, including any
// accumulated trace, are discarded.
func (o *Orchestrator) LoadAgents(ctx context.Context) error {
	profiles, err := o.store.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("load agent profiles: %w", err)
	}
	pillarList, err := o.store.ListPillarLevels(ctx)
	if err != nil {
		return fmt.Errorf("load pillar levels: %w", err)
	}

	pool := make([]*agent.Agent, 0, len(profiles))
	for _, p := range profiles {
		pool = append(pool, agent.New(p, o.algorithms, o.axes))
	}
	pillars := make(map[string]models.PillarLevel, len(pillarList))
	for _, p := range pillarList {
		pillars[p.ID] = p
	}

	o.mu.Lock()
	o.agents = pool
	o.pillars = pillars
	o.mu.Unlock()

	o.logger.Log("loaded %d agents, %d pillar levels", len(pool), len(pillars))
	return nil
}

// Agents returns the current agent pool in load order.
func (o *Orchestrator) Agents() []*agent.Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]*agent.Agent(nil), o.agents...)
}

// Pillars returns the current pillar catalog keyed by ID.
func (o *Orchestrator) Pillars() map[string]models.PillarLevel {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]models.PillarLevel, len(o.pillars))
	for k, v := range o.pillars {
		out[k] = v
	}
	return out
}

// ValidateNode checks a node's structural integrity before dispatch: required
// fields present, pillar known to the catalog, every axis known to the
// registry with in-range values. All failures wrap ErrValidation.
func (o *Orchestrator) ValidateNode(node *models.Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrValidation)
	}
	if node.ID == "" {
		return fmt.Errorf("%w: missing id", ErrValidation)
	}
	if node.Label == "" {
		return fmt.Errorf("%w: missing label", ErrValidation)
	}
	if node.PillarLevelID == "" {
		return fmt.Errorf("%w: missing pillar_level_id", ErrValidation)
	}

	o.mu.RLock()
	_, known := o.pillars[node.PillarLevelID]
	o.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: unknown pillar level %s", ErrValidation, node.PillarLevelID)
	}

	if len(node.AxisValues) == 0 {
		return fmt.Errorf("%w: node has no axis values", ErrValidation)
	}
	for name, data := range node.AxisValues {
		if !o.axes.Has(name) {
			return fmt.Errorf("%w: unknown axis %s", ErrValidation, name)
		}
		if err := o.axes.Validate(name, data); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

// ProcessNode dispatches the node to every capable agent in the pool and
// collects their results. agentNames, when non-empty, restricts dispatch to
// the named agents.
//
// An agent is capable when the algorithm is in its capability set and its
// domain coverage includes the node's pillar. Zero capable agents is not an
// error: the dispatch returns an empty list. Individual agent failures are
// recorded per-result and never abort the rest of the dispatch.
func (o *Orchestrator) ProcessNode(ctx context.Context, node models.Node, algorithmID string, agentNames ...string) ([]DispatchResult, error) {
	if err := o.ValidateNode(&node); err != nil {
		return nil, err
	}
	if !o.algorithms.Has(algorithmID) {
		return nil, fmt.Errorf("unknown algorithm %s", algorithmID)
	}

	o.mu.RLock()
	pool := append([]*agent.Agent(nil), o.agents...)
	pillars := o.pillars
	o.mu.RUnlock()

	wanted := map[string]bool{}
	for _, n := range agentNames {
		wanted[n] = true
	}

	o.logger.Log("dispatching node %s with algorithm %s across %d agents", node.ID, algorithmID, len(pool))

	var results []DispatchResult
	for _, ag := range pool {
		if len(wanted) > 0 && !wanted[ag.Name()] {
			continue
		}
		if !ag.Profile.HasAlgorithm(algorithmID) || !ag.Profile.CoversPillar(node.PillarLevelID) {
			continue
		}

		res := ag.Process(ctx, node, algorithmID, pillars, 0, o.maxRecursion, nil, pool)
		dr := DispatchResult{
			AgentName: ag.Name(),
			Success:   res.Error == "",
			Result:    res,
			Error:     res.Error,
			Timestamp: time.Now().UTC(),
		}
		results = append(results, dr)

		if err := o.store.SaveAgentTrace(ctx, ag.ID(), ag.Trace()); err != nil {
			o.logger.Log("persist trace for %s: %v", ag.Name(), err)
		}
	}

	o.history.append(HistoryEntry{
		Timestamp:   time.Now().UTC(),
		NodeID:      node.ID,
		AlgorithmID: algorithmID,
		Results:     results,
	})

	if results == nil {
		results = []DispatchResult{}
	}
	return results, nil
}

// History returns dispatch records filtered by node ID and agent name. Empty
// filters match everything. At most the last 1000 dispatches are retained.
func (o *Orchestrator) History(nodeID, agentName string) []HistoryEntry {
	return o.history.filter(nodeID, agentName)
}

// MaxRecursion returns the configured escalation depth bound.
func (o *Orchestrator) MaxRecursion() int { return o.maxRecursion }
