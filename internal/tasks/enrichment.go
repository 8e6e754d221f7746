package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// enrichmentRelationDefault is used when a new-node suggestion omits the
// relation type.
const enrichmentRelationDefault = "related_to"

// runEnrichment applies suggested graph mutations to the store. The writes of
// one task commit in a single batch; a malformed suggestion is logged and
// skipped without aborting its siblings.
func (m *Manager) runEnrichment(ctx context.Context, task *models.Task) (map[string]any, error) {
	suggestions, err := suggestionsParam(task.Parameters)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return map[string]any{"node_id": task.NodeID, "applied": 0, "skipped": 0}, nil
	}

	source, err := m.store.GetNode(ctx, task.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", task.NodeID, err)
	}

	applied, skipped := 0, 0
	err = m.store.ApplyBatch(ctx, func(w store.BatchWriter) error {
		for i, s := range suggestions {
			if err := m.applySuggestion(w, source, s); err != nil {
				m.logger.Log("enrichment for node %s: suggestion %d skipped: %v", task.NodeID, i, err)
				skipped++
				continue
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply enrichment batch: %w", err)
	}

	return map[string]any{
		"node_id": task.NodeID,
		"applied": applied,
		"skipped": skipped,
	}, nil
}

// applySuggestion writes one suggestion through the batch writer. New nodes
// inherit the source node's pillar.
func (m *Manager) applySuggestion(w store.BatchWriter, source *models.Node, s llm.Suggestion) error {
	switch s.Type {
	case "new_node":
		if s.Label == "" {
			return fmt.Errorf("new_node suggestion has no label")
		}
		now := time.Now().UTC()
		node := &models.Node{
			ID:            uuid.New().String(),
			Label:         s.Label,
			Description:   s.Description,
			PillarLevelID: source.PillarLevelID,
			AxisValues:    map[string]models.AxisData{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := w.SaveNode(node); err != nil {
			return fmt.Errorf("save node: %w", err)
		}
		relation := s.RelationType
		if relation == "" {
			relation = enrichmentRelationDefault
		}
		edge := &models.Edge{
			ID:           uuid.New().String(),
			FromNodeID:   source.ID,
			ToNodeID:     node.ID,
			RelationType: relation,
			Confidence:   s.Confidence,
			CreatedAt:    now,
		}
		if err := w.CreateEdge(edge); err != nil {
			return fmt.Errorf("create edge: %w", err)
		}
		return nil

	case "update_axis":
		if len(s.Updates) == 0 {
			return fmt.Errorf("update_axis suggestion has no updates")
		}
		updates := make(map[string]models.AxisData, len(s.Updates))
		for axis, values := range s.Updates {
			updates[axis] = models.AxisData{Values: values}
		}
		if err := w.UpdateAxisValues(source.ID, updates); err != nil {
			return fmt.Errorf("update axis values: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown suggestion type %q", s.Type)
	}
}

// suggestionsParam extracts the suggestion list from task parameters. The
// in-process cascade stores typed values; external callers may pass decoded
// JSON maps instead.
func suggestionsParam(params map[string]any) ([]llm.Suggestion, error) {
	raw, ok := params["suggestions"]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []llm.Suggestion:
		return v, nil
	case []any:
		out := make([]llm.Suggestion, 0, len(v))
		for _, item := range v {
			mm, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("suggestion entry has unexpected type %T", item)
			}
			out = append(out, suggestionFromMap(mm))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("suggestions parameter has unexpected type %T", raw)
	}
}

func suggestionFromMap(m map[string]any) llm.Suggestion {
	s := llm.Suggestion{}
	if v, ok := m["type"].(string); ok {
		s.Type = v
	}
	if v, ok := m["label"].(string); ok {
		s.Label = v
	}
	if v, ok := m["description"].(string); ok {
		s.Description = v
	}
	if v, ok := m["relation_type"].(string); ok {
		s.RelationType = v
	}
	if v, ok := m["confidence"].(float64); ok {
		s.Confidence = v
	}
	if updates, ok := m["updates"].(map[string]any); ok {
		s.Updates = map[string][]float64{}
		for axis, vals := range updates {
			if list, ok := vals.([]any); ok {
				values := make([]float64, 0, len(list))
				for _, f := range list {
					if fv, ok := f.(float64); ok {
						values = append(values, fv)
					}
				}
				s.Updates[axis] = values
			}
		}
	}
	return s
}
