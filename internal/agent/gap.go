package agent

import (
	"fmt"
	"math"
	"sort"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// lowOutputMagnitude marks an algorithm result as likely insignificant.
const lowOutputMagnitude = 0.1

// depletedAxisValue is the ceiling below which an axis counts as empty:
// an axis whose samples are all under it carries no usable signal.
const depletedAxisValue = 0.05

// gapInfo describes why a gap was flagged.
type gapInfo struct {
	reasons       []string
	depletedAxes  []string
	missingPillar string
}

// detectGap decides whether the outcome of a computation is insufficient.
// A gap is flagged when the output is missing or insignificant, confidence
// falls below the agent's threshold for the algorithm, an axis carries no
// usable signal, or the node's pillar lies outside the agent's coverage.
func (a *Agent) detectGap(node models.Node, output *models.AlgorithmOutput, algorithmID string) (bool, gapInfo) {
	var info gapInfo
	gap := false

	switch {
	case output == nil:
		gap = true
		info.reasons = append(info.reasons, "algorithm output missing")
	case output.Confidence < a.threshold(algorithmID):
		gap = true
		info.reasons = append(info.reasons,
			fmt.Sprintf("confidence %.2f below threshold %.2f", output.Confidence, a.threshold(algorithmID)))
	case math.Abs(output.Value) < lowOutputMagnitude:
		gap = true
		info.reasons = append(info.reasons, "result likely insignificant")
	}

	names := make([]string, 0, len(node.AxisValues))
	for name := range node.AxisValues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if axisDepleted(node.AxisValues[name]) {
			gap = true
			info.depletedAxes = append(info.depletedAxes, name)
		}
	}

	if node.PillarLevelID != "" && !a.Profile.CoversPillar(node.PillarLevelID) {
		gap = true
		info.missingPillar = node.PillarLevelID
	}

	return gap, info
}

// axisDepleted reports whether every sampled value of the axis is below the
// usable-signal floor. Axes with no samples count as depleted.
func axisDepleted(data models.AxisData) bool {
	if len(data.Values) == 0 {
		return true
	}
	for _, v := range data.Values {
		if v >= depletedAxisValue {
			return false
		}
	}
	return true
}

// research attempts to fill whatever gap remains after escalation. Depleted
// axes are imputed on the working copy; a missing pillar cannot be fixed
// locally and is reported as such.
func (a *Agent) research(working *models.Node, info gapInfo) *models.ValidationReport {
	report := &models.ValidationReport{}

	switch {
	case len(info.depletedAxes) > 0:
		for _, axis := range info.depletedAxes {
			working.AxisValues[axis] = models.AxisData{
				Values:  []float64{imputedAxisValue},
				Weights: []float64{1.0},
			}
			report.Actions = append(report.Actions,
				fmt.Sprintf("imputed axis %s with default value", axis))
		}
		report.Status = "axis values imputed"
	case info.missingPillar != "":
		report.Status = "unable to fill gap: missing pillar expertise"
	default:
		report.Status = "no significant gap found"
	}

	return report
}
