// Package axes defines the mathematical axis system used to profile
// knowledge nodes. Every axis has a declared value range and a pure
// aggregation function over sampled values.
package axes

import (
	"fmt"
	"math"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// Func aggregates sampled values into a single axis score.
// Weights may be nil, in which case values are weighted equally.
type Func func(values, weights []float64) float64

// Axis describes one analysis dimension.
type Axis struct {
	// Name is the human-readable axis name.
	Name string
	// Description explains what the axis measures.
	Description string
	// Min and Max bound the valid range for sampled values.
	Min, Max float64
	// Compute is the pure aggregation function for this axis.
	Compute Func
}

// Registry is an immutable set of axes, built once at startup and passed
// by reference wherever axis validation or computation is needed.
type Registry struct {
	axes  map[string]Axis
	order []string
}

// ErrUnknownAxis is wrapped by errors returned for axis names outside the registry.
var ErrUnknownAxis = fmt.Errorf("unknown axis")

// WeightedAverage computes the weighted mean of values.
// Returns 0 for empty input.
func WeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum, wsum float64
	for i, v := range values {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		sum += v * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// TemporalDecay computes an exponentially decayed sum where weights are
// interpreted as time deltas. A fixed decay rate of 0.1 is used.
func TemporalDecay(values, weights []float64) float64 {
	const decayRate = 0.1
	var sum float64
	for i, v := range values {
		t := 0.0
		if i < len(weights) {
			t = weights[i]
		}
		sum += v * math.Exp(-decayRate*t)
	}
	return sum
}

// NewRegistry builds the standard 13-axis registry.
func NewRegistry() *Registry {
	r := &Registry{axes: make(map[string]Axis)}

	unit := func(name, humanName, desc string) {
		r.add(name, Axis{Name: humanName, Description: desc, Min: 0, Max: 1, Compute: WeightedAverage})
	}

	unit("pillar_function", "Pillar Function", "Alignment with pillar-level objectives")
	unit("level_hierarchy", "Level Hierarchy", "Position and influence in the knowledge hierarchy")
	unit("unified_system_function", "Unified System Function", "Contribution to overall system objectives")
	r.add("temporal_relevance", Axis{
		Name:        "Temporal Relevance",
		Description: "Time-based relevance and decay of knowledge",
		Min:         0, Max: 1,
		Compute: TemporalDecay,
	})
	unit("semantic_density", "Semantic Density", "Density of meaningful connections and relationships")
	r.add("complexity_measure", Axis{
		Name:        "Complexity Measure",
		Description: "Inherent complexity and sophistication",
		Min:         0, Max: 5,
		Compute: WeightedAverage,
	})
	unit("uncertainty_quantification", "Uncertainty Quantification", "Uncertainty and confidence levels")
	unit("role_id_layer", "Role Identification Layer", "Identification of functional roles")
	unit("sector_expert_function", "Sector Expert Function", "Domain expertise and specialization")
	unit("compliance_vector", "Compliance Vector", "Regulatory and compliance alignment")
	unit("risk_tensor", "Risk Tensor", "Multi-dimensional risk assessment")
	unit("innovation_potential", "Innovation Potential", "Potential for generating new insights")
	unit("cross_domain_synergy", "Cross-Domain Synergy", "Synergistic effects across domains")

	return r
}

func (r *Registry) add(key string, axis Axis) {
	r.axes[key] = axis
	r.order = append(r.order, key)
}

// Get returns the axis for the given key.
func (r *Registry) Get(key string) (Axis, bool) {
	a, ok := r.axes[key]
	return a, ok
}

// Names returns axis keys in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Has returns true if the registry contains the axis.
func (r *Registry) Has(key string) bool {
	_, ok := r.axes[key]
	return ok
}

// Validate checks that the axis exists, that data carries at least one value,
// and that every value lies within the axis's declared range.
func (r *Registry) Validate(key string, data models.AxisData) error {
	axis, ok := r.axes[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAxis, key)
	}
	if len(data.Values) == 0 {
		return fmt.Errorf("axis %s: missing required values", key)
	}
	if len(data.Weights) > 0 && len(data.Weights) != len(data.Values) {
		return fmt.Errorf("axis %s: %d weights for %d values", key, len(data.Weights), len(data.Values))
	}
	for _, v := range data.Values {
		if v < axis.Min || v > axis.Max {
			return fmt.Errorf("axis %s: value %g outside valid range [%g, %g]", key, v, axis.Min, axis.Max)
		}
	}
	return nil
}

// ComputeValue aggregates the axis data with the axis's function.
func (r *Registry) ComputeValue(key string, data models.AxisData) (float64, error) {
	axis, ok := r.axes[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAxis, key)
	}
	return axis.Compute(data.Values, data.Weights), nil
}
