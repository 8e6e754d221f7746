package tasks

import (
	"context"
	"fmt"

	"github.com/nexus-ukg/nexus/internal/orchestrator"
	"github.com/nexus-ukg/nexus/pkg/models"
)

// capabilityValidation marks agents eligible for validation dispatch.
const capabilityValidation = "validation"

// runValidation re-evaluates a node with every validation-capable agent and
// derives a confidence-weighted consensus across their numeric outputs.
func (m *Manager) runValidation(ctx context.Context, task *models.Task) (map[string]any, error) {
	node, err := m.store.GetNode(ctx, task.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", task.NodeID, err)
	}

	algorithmID := paramString(task.Parameters, "algorithm_id", defaultAlgorithmID)
	names := m.capableAgentNames(capabilityValidation)
	if len(names) == 0 {
		return map[string]any{
			"node_id": node.ID,
			"status":  "no validation agents available",
		}, nil
	}

	results, err := m.orch.ProcessNode(ctx, *node, algorithmID, names...)
	if err != nil {
		return nil, fmt.Errorf("dispatch validation agents: %w", err)
	}

	outputs := collectOutputs(results)
	consensus := weightedConsensus(outputs)

	confidences := make([]float64, len(outputs))
	for i, out := range outputs {
		confidences[i] = out.Confidence
	}

	status := "validated"
	if len(outputs) == 0 {
		status = "no usable results"
	}

	return map[string]any{
		"node_id":         node.ID,
		"status":          status,
		"agents":          len(results),
		"consensus":       consensus,
		"mean_confidence": meanOf(confidences),
	}, nil
}

// collectOutputs extracts the successful outputs of a dispatch.
func collectOutputs(results []orchestrator.DispatchResult) []*models.AlgorithmOutput {
	var outputs []*models.AlgorithmOutput
	for _, r := range results {
		if r.Success && r.Result != nil && r.Result.Output != nil {
			outputs = append(outputs, r.Result.Output)
		}
	}
	return outputs
}

// weightedConsensus combines outputs field by field, weighting each value by
// its producer's confidence. Zero total confidence yields a plain average.
func weightedConsensus(outputs []*models.AlgorithmOutput) map[string]float64 {
	if len(outputs) == 0 {
		return nil
	}

	sums := map[string]float64{}
	weights := map[string]float64{}
	counts := map[string]int{}

	accumulate := func(field string, value, confidence float64) {
		sums[field] += value * confidence
		weights[field] += confidence
		counts[field]++
	}

	for _, out := range outputs {
		accumulate("value", out.Value, out.Confidence)
		for field, v := range out.Details {
			accumulate(field, v, out.Confidence)
		}
	}

	consensus := make(map[string]float64, len(sums))
	for field, sum := range sums {
		if weights[field] > 0 {
			consensus[field] = sum / weights[field]
			continue
		}
		// All contributors reported zero confidence; fall back to the
		// unweighted mean of raw values.
		var raw float64
		for _, out := range outputs {
			if field == "value" {
				raw += out.Value
			} else if v, ok := out.Details[field]; ok {
				raw += v
			}
		}
		consensus[field] = raw / float64(counts[field])
	}
	return consensus
}
