package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// capabilityResearch marks agents eligible for research dispatch.
const capabilityResearch = "research"

// defaultAlgorithmID is used when a task does not name an algorithm.
const defaultAlgorithmID = "ai_knowledge_discovery"

// runResearch dispatches research-capable agents at the target node,
// aggregates their findings, and asks the reasoning backend for graph
// expansion suggestions. Enough suggestions cascade into an enrichment task.
func (m *Manager) runResearch(ctx context.Context, task *models.Task) (map[string]any, error) {
	node, err := m.store.GetNode(ctx, task.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", task.NodeID, err)
	}

	algorithmID := paramString(task.Parameters, "algorithm_id", defaultAlgorithmID)
	names := m.capableAgentNames(capabilityResearch)

	var findings []string
	dispatched := 0
	if len(names) > 0 {
		results, err := m.orch.ProcessNode(ctx, *node, algorithmID, names...)
		if err != nil {
			return nil, fmt.Errorf("dispatch research agents: %w", err)
		}
		dispatched = len(results)
		for _, r := range results {
			if r.Result != nil && r.Result.Output != nil {
				findings = append(findings, r.Result.Output.Findings...)
			}
		}
	}
	findings = dedupStrings(findings)

	suggestions := dedupSuggestions(m.generateSuggestions(ctx, node, findings))

	result := map[string]any{
		"node_id":     node.ID,
		"dispatched":  dispatched,
		"findings":    findings,
		"suggestions": suggestions,
	}

	if len(suggestions) >= m.enrichmentThreshold {
		follow, err := m.Schedule(models.TaskTypeEnrichment, node.ID, map[string]any{
			"suggestions": suggestions,
		}, task.Priority)
		if err != nil {
			m.logger.Log("cascade enrichment for node %s: %v", node.ID, err)
		} else {
			result["enrichment_task_id"] = follow.ID
		}
	}

	return result, nil
}

// generateSuggestions asks the backend for graph expansion ideas. A missing
// backend or an unparseable reply degrades to no suggestions.
func (m *Manager) generateSuggestions(ctx context.Context, node *models.Node, findings []string) []llm.Suggestion {
	if m.backend == nil {
		return nil
	}

	prompt := fmt.Sprintf(
		"Analyze the knowledge node %q (%s) and propose graph expansions. "+
			"Reply with JSON: {\"suggestions\": [{\"type\": \"new_node\"|\"update_axis\", "+
			"\"label\": ..., \"description\": ..., \"relation_type\": ..., "+
			"\"confidence\": 0..1, \"updates\": {axis: [values]}}]}",
		node.Label, node.PillarLevelID)

	contextData := map[string]any{
		"node_id":     node.ID,
		"description": node.Description,
		"axis_values": node.AxisValues,
		"findings":    findings,
	}

	resp, err := m.backend.Generate(ctx, prompt, contextData, 0.7, 2048)
	if err != nil {
		m.logger.Log("research backend for node %s: %v", node.ID, err)
		return nil
	}
	return llm.ParseSuggestions(resp.Text)
}

// dedupStrings removes duplicates, keeping first occurrences in order.
func dedupStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// suggestionKey identifies a suggestion for dedup: new nodes by label, axis
// updates by the set of axes they touch. Duplicate proposals must not count
// twice toward the enrichment threshold or apply twice downstream.
func suggestionKey(s llm.Suggestion) string {
	if s.Type == "update_axis" {
		axes := make([]string, 0, len(s.Updates))
		for name := range s.Updates {
			axes = append(axes, name)
		}
		sort.Strings(axes)
		return s.Type + "|" + strings.Join(axes, ",")
	}
	return s.Type + "|" + s.Label
}

// dedupSuggestions removes suggestions sharing a key, keeping first occurrences.
func dedupSuggestions(in []llm.Suggestion) []llm.Suggestion {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]llm.Suggestion, 0, len(in))
	for _, s := range in {
		key := suggestionKey(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// capableAgentNames returns pool-order names of agents with the capability.
func (m *Manager) capableAgentNames(capability string) []string {
	var names []string
	for _, ag := range m.orch.Agents() {
		if ag.Profile.HasCapability(capability) {
			names = append(names, ag.Name())
		}
	}
	return names
}

// paramString reads a string parameter with a fallback.
func paramString(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
