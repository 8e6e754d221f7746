package algorithm

import (
	"sort"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// knowledgeDiscovery scores a node by averaging weighted per-axis
// contributions. Each axis contributes its mean value times its weight;
// confidence is the mean contribution across contributing axes.
func knowledgeDiscovery(query models.Node, axisValues map[string]models.AxisData, weights map[string]float64) (*models.AlgorithmOutput, error) {
	out := &models.AlgorithmOutput{Details: make(map[string]float64)}

	// Iterate axes in sorted order so Details and Findings are deterministic.
	names := make([]string, 0, len(axisValues))
	for name := range axisValues {
		names = append(names, name)
	}
	sort.Strings(names)

	var total float64
	for _, name := range names {
		data := axisValues[name]
		if len(data.Values) == 0 {
			continue
		}
		weight := 1.0
		if w, ok := weights[name]; ok {
			weight = w
		}
		var sum float64
		for _, v := range data.Values {
			sum += v
		}
		contribution := (sum / float64(len(data.Values))) * weight
		out.Details[name] = contribution
		total += contribution
	}

	if len(out.Details) > 0 {
		out.Confidence = total / float64(len(out.Details))
	}
	out.Value = out.Confidence
	return out, nil
}

// riskAssessment derives a risk level from the unified system function axis:
// high values mean the node serves the system well, so risk is the complement
// of the axis mean. The level is banded into LOW/MEDIUM/HIGH findings.
func riskAssessment(query models.Node, axisValues map[string]models.AxisData, weights map[string]float64) (*models.AlgorithmOutput, error) {
	out := &models.AlgorithmOutput{Details: make(map[string]float64)}

	data, ok := axisValues["unified_system_function"]
	if !ok || len(data.Values) == 0 {
		return out, nil
	}

	var sum float64
	for _, v := range data.Values {
		sum += v
	}
	risk := 1.0 - sum/float64(len(data.Values))
	out.Value = risk
	out.Confidence = 1.0 - risk
	out.Details["unified_system_function"] = risk

	switch {
	case risk > 0.7:
		out.Findings = append(out.Findings, "HIGH_RISK")
	case risk > 0.4:
		out.Findings = append(out.Findings, "MEDIUM_RISK")
	default:
		out.Findings = append(out.Findings, "LOW_RISK")
	}
	return out, nil
}
