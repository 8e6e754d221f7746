package tasks

import (
	"context"
	"fmt"
	"math"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// runEnsemble evaluates a node with every agent capable of the algorithm and
// statistically combines the results. High disagreement cascades into exactly
// one validation task.
func (m *Manager) runEnsemble(ctx context.Context, task *models.Task) (map[string]any, error) {
	node, err := m.store.GetNode(ctx, task.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", task.NodeID, err)
	}

	algorithmID := paramString(task.Parameters, "algorithm_id", defaultAlgorithmID)

	results, err := m.orch.ProcessNode(ctx, *node, algorithmID)
	if err != nil {
		return nil, fmt.Errorf("dispatch ensemble: %w", err)
	}

	outputs := collectOutputs(results)
	if len(outputs) == 0 {
		return map[string]any{
			"node_id": node.ID,
			"agents":  len(results),
			"status":  "no usable results",
		}, nil
	}

	metrics := computeEnsembleMetrics(outputs)

	result := map[string]any{
		"node_id": node.ID,
		"agents":  len(results),
		"metrics": metrics,
	}

	if metrics.DisagreementLevel > m.disagreementThreshold {
		m.logger.Log("ensemble for node %s: disagreement %.3f exceeds %.3f, cascading validation",
			node.ID, metrics.DisagreementLevel, m.disagreementThreshold)
		follow, err := m.Schedule(models.TaskTypeValidation, node.ID, map[string]any{
			"algorithm_id": algorithmID,
		}, task.Priority)
		if err != nil {
			m.logger.Log("cascade validation for node %s: %v", node.ID, err)
		} else {
			result["validation_task_id"] = follow.ID
		}
	}

	return result, nil
}

// computeEnsembleMetrics derives agreement statistics over the confidence
// distribution and a confidence-weighted consensus per output field.
//
// Agreement is 1 - stddev/mean with the population standard deviation; a zero
// mean pins agreement to 0. Agreement is clamped to [0, 1].
func computeEnsembleMetrics(outputs []*models.AlgorithmOutput) *models.EnsembleMetrics {
	confidences := make([]float64, len(outputs))
	for i, out := range outputs {
		confidences[i] = out.Confidence
	}

	mean := meanOf(confidences)
	std := populationStdDev(confidences, mean)

	agreement := 0.0
	if mean > 0 {
		agreement = 1 - std/mean
	}
	if agreement < 0 {
		agreement = 0
	} else if agreement > 1 {
		agreement = 1
	}

	return &models.EnsembleMetrics{
		MeanConfidence:    mean,
		StdDev:            std,
		AgreementScore:    agreement,
		DisagreementLevel: 1 - agreement,
		Consensus:         weightedConsensus(outputs),
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
