package models

import "time"

// AxisData holds the sampled values and optional weights for one axis of a node.
type AxisData struct {
	// Values are the sampled measurements for this axis.
	Values []float64 `json:"values"`
	// Weights are optional per-value weights. If empty, values are weighted equally.
	Weights []float64 `json:"weights,omitempty"`
}

// Node represents a vertex in the knowledge graph.
// Each node carries a multi-axis numeric profile and belongs to a pillar level.
type Node struct {
	// ID is the unique identifier for this node.
	ID string `json:"id"`
	// Label is the short human-readable name of the node.
	Label string `json:"label"`
	// Description provides detailed information about the node.
	Description string `json:"description,omitempty"`
	// PillarLevelID is the domain classification code (e.g. "PL04").
	PillarLevelID string `json:"pillar_level_id"`
	// AxisValues maps axis names to their sampled data.
	AxisValues map[string]AxisData `json:"axis_values"`
	// CreatedAt is when the node was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the node was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the node. Agents mutate only working copies;
// the stored node changes only when a caller explicitly commits.
func (n Node) Clone() Node {
	out := n
	out.AxisValues = make(map[string]AxisData, len(n.AxisValues))
	for name, data := range n.AxisValues {
		cp := AxisData{
			Values: append([]float64(nil), data.Values...),
		}
		if data.Weights != nil {
			cp.Weights = append([]float64(nil), data.Weights...)
		}
		out.AxisValues[name] = cp
	}
	return out
}

// Edge represents a directed relation between two nodes.
type Edge struct {
	// ID is the unique identifier for this edge.
	ID string `json:"id"`
	// FromNodeID is the source node.
	FromNodeID string `json:"from_node_id"`
	// ToNodeID is the target node.
	ToNodeID string `json:"to_node_id"`
	// RelationType describes the semantic relation (e.g. "derived_from").
	RelationType string `json:"relation_type"`
	// Confidence is how certain the system is about this relation.
	Confidence float64 `json:"confidence"`
	// CreatedAt is when the edge was created.
	CreatedAt time.Time `json:"created_at"`
}

// PillarLevel is a domain classification entry.
type PillarLevel struct {
	// ID is the pillar code (e.g. "PL04").
	ID string `json:"id"`
	// Name is the human-readable pillar name.
	Name string `json:"name"`
	// Description explains the domain the pillar covers.
	Description string `json:"description,omitempty"`
	// DomainType groups pillars into broad categories.
	DomainType string `json:"domain_type,omitempty"`
}
