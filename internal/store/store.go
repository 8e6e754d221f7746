// Package store provides graph persistence for the reasoning engine.
// The engine consumes it through the KnowledgeStore interface; the default
// implementation is SQLite-backed.
package store

import (
	"context"
	"errors"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// BatchWriter applies a group of graph mutations inside one transaction.
// Used by enrichment: individual suggestions may be skipped by the caller,
// but everything written through the same BatchWriter commits together.
type BatchWriter interface {
	// SaveNode inserts or replaces a node.
	SaveNode(node *models.Node) error
	// CreateEdge inserts an edge.
	CreateEdge(edge *models.Edge) error
	// UpdateAxisValues merges axis updates into an existing node's profile.
	UpdateAxisValues(nodeID string, updates map[string]models.AxisData) error
}

// KnowledgeStore is the persistence surface the engine depends on.
type KnowledgeStore interface {
	// GetNode returns the node with the given ID, or ErrNotFound.
	GetNode(ctx context.Context, id string) (*models.Node, error)
	// GetNeighbors returns nodes connected to id by an outgoing edge.
	GetNeighbors(ctx context.Context, id string) ([]models.Node, error)
	// SaveNode inserts or replaces a node.
	SaveNode(ctx context.Context, node *models.Node) error
	// CreateEdge inserts an edge.
	CreateEdge(ctx context.Context, edge *models.Edge) error
	// ListAgents returns all persisted agent profiles.
	ListAgents(ctx context.Context) ([]models.Agent, error)
	// ListPillarLevels returns all domain classification entries.
	ListPillarLevels(ctx context.Context) ([]models.PillarLevel, error)
	// SaveAgentTrace persists an agent's bounded trace log.
	SaveAgentTrace(ctx context.Context, agentID string, trace []*models.ProcessingResult) error
	// ApplyBatch runs fn against a BatchWriter; all writes commit together
	// or not at all.
	ApplyBatch(ctx context.Context, fn func(BatchWriter) error) error
}
