// Package algorithm provides the registry of pure scoring algorithms that
// agents apply to node axis profiles. The registry is an immutable value
// built at startup; algorithms are deterministic and keyed by ID.
package algorithm

import (
	"fmt"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// ErrUnknownAlgorithm is wrapped by errors returned for IDs outside the registry.
var ErrUnknownAlgorithm = fmt.Errorf("unknown algorithm")

// Func is a pure scoring function. It receives the node being evaluated as
// the query, the (possibly imputed) axis data, and optional per-axis weights.
type Func func(query models.Node, axisValues map[string]models.AxisData, weights map[string]float64) (*models.AlgorithmOutput, error)

// Entry pairs an algorithm implementation with its metadata.
type Entry struct {
	// Name is the human-readable algorithm name.
	Name string
	// Description explains what the algorithm computes.
	Description string
	// Required lists axes the algorithm cannot run without. Callers impute
	// neutral defaults for missing required axes before executing.
	Required []string
	// Run is the scoring function.
	Run Func
}

// Registry holds the available algorithms. Build it once with NewRegistry
// and pass it by reference; it is safe for concurrent reads.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// NewRegistry builds a registry with the built-in algorithms.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}
	r.register("ai_knowledge_discovery", Entry{
		Name:        "AI Knowledge Discovery",
		Description: "Weighted per-axis contribution analysis with normalized confidence",
		Run:         knowledgeDiscovery,
	})
	r.register("risk_assessment", Entry{
		Name:        "Risk Assessment",
		Description: "Risk level derived from the unified system function axis",
		Required:    []string{"unified_system_function"},
		Run:         riskAssessment,
	})
	return r
}

func (r *Registry) register(id string, e Entry) {
	r.entries[id] = e
	r.order = append(r.order, id)
}

// Has returns true if the registry contains the algorithm.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// IDs returns algorithm IDs in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Get returns the entry for the given ID.
func (r *Registry) Get(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Execute runs the algorithm with the given inputs.
// An unknown ID is a hard error; algorithm-internal failures are returned
// as errors for the caller to degrade from.
func (r *Registry) Execute(id string, query models.Node, axisValues map[string]models.AxisData, weights map[string]float64) (*models.AlgorithmOutput, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, id)
	}
	return e.Run(query, axisValues, weights)
}
