// Package agent implements the recursive reasoning unit of the dispatch
// engine. An agent evaluates a node with one algorithm, detects gaps in the
// outcome, and escalates to an alternate algorithm or a peer agent when the
// answer is not good enough.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-ukg/nexus/internal/algorithm"
	"github.com/nexus-ukg/nexus/internal/axes"
	"github.com/nexus-ukg/nexus/pkg/models"
)

const (
	// maxTraceEntries caps the bounded trace; oldest entries are evicted first.
	maxTraceEntries = 1000
	// defaultConfidenceThreshold applies when the agent has no per-algorithm
	// threshold configured.
	defaultConfidenceThreshold = 0.7
	// imputedAxisValue is the neutral default substituted for a missing
	// required axis. The imputation is always logged as an action.
	imputedAxisValue = 0.5
)

// Agent is a domain-scoped reasoning unit. Construct with New; the zero
// value is not usable.
type Agent struct {
	// Profile is the persisted identity of the agent: name, domain coverage,
	// capability set, thresholds.
	Profile models.Agent

	algorithms *algorithm.Registry
	axisReg    *axes.Registry

	state *stateGuard
	trace *traceLog
}

// New creates an agent from its persisted profile and the shared registries.
func New(profile models.Agent, algorithms *algorithm.Registry, axisReg *axes.Registry) *Agent {
	return &Agent{
		Profile:    profile,
		algorithms: algorithms,
		axisReg:    axisReg,
		state:      newStateGuard(),
		trace:      newTraceLog(maxTraceEntries),
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.Profile.ID }

// Name returns the agent's human-readable name.
func (a *Agent) Name() string { return a.Profile.Name }

// State returns the agent's current state.
func (a *Agent) State() models.AgentState { return a.state.current() }

// Trace returns a snapshot of the agent's bounded trace log, oldest first.
func (a *Agent) Trace() []*models.ProcessingResult { return a.trace.snapshot() }

// threshold returns the gap threshold for the given algorithm.
func (a *Agent) threshold(algorithmID string) float64 {
	if t, ok := a.Profile.ConfidenceThresholds[algorithmID]; ok {
		return t
	}
	return defaultConfidenceThreshold
}

// Process evaluates a node with the requested algorithm, escalating through
// self-recursion or peer delegation when a gap is detected.
//
// The node is treated as an immutable snapshot: imputation and research
// operate on a working copy only. visited carries the IDs of agents already
// on this recursion chain and only ever grows along a path; depth rises by
// one per escalation and never exceeds maxDepth in any result subtree.
//
// Process never panics and never reports reasoning failures as Go errors:
// every internal failure surfaces in the result's Error field. Exactly one
// trace entry is appended per invocation; sub-calls append their own.
func (a *Agent) Process(
	ctx context.Context,
	node models.Node,
	algorithmID string,
	pillars map[string]models.PillarLevel,
	depth, maxDepth int,
	visited map[string]struct{},
	peers []*Agent,
) *models.ProcessingResult {
	if visited == nil {
		visited = map[string]struct{}{}
	}

	result := &models.ProcessingResult{
		AgentID:        a.Profile.ID,
		AgentName:      a.Profile.Name,
		PillarLevels:   append([]string(nil), a.Profile.DomainCoverage...),
		AlgorithmID:    algorithmID,
		NodeID:         node.ID,
		StartTime:      time.Now().UTC(),
		RecursionDepth: depth,
	}

	release := a.state.enter()
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("internal panic: %v", r)
			result.Confidence = 0
		}
		a.trace.append(result)
		release(result.Error == "")
	}()

	// Step 1: capability check. An algorithm outside the capability set (or
	// unknown to the registry) short-circuits without recursion.
	if !a.Profile.HasAlgorithm(algorithmID) || !a.algorithms.Has(algorithmID) {
		result.Actions = append(result.Actions,
			fmt.Sprintf("algorithm %s not in agent capability set", algorithmID))
		return result
	}

	// Step 2: validate and impute on a working copy. Missing required axes
	// get the neutral default; the stored node is never touched.
	working := node.Clone()
	a.validateAxes(&working, algorithmID, result)

	// Step 3: compute. Failures degrade to confidence 0 and are logged,
	// never propagated.
	output, err := a.algorithms.Execute(algorithmID, working, working.AxisValues, nil)
	if err != nil {
		result.Actions = append(result.Actions, fmt.Sprintf("computation failed: %v", err))
		output = nil
	} else {
		result.Output = output
		result.Confidence = output.Confidence
		result.Actions = append(result.Actions, fmt.Sprintf("computed %s directly", algorithmID))
	}

	// Step 4: gap check.
	gap, info := a.detectGap(working, output, algorithmID)
	if info.missingPillar != "" {
		label := info.missingPillar
		if p, ok := pillars[info.missingPillar]; ok && p.Name != "" {
			label = fmt.Sprintf("%s (%s)", info.missingPillar, p.Name)
		}
		result.Actions = append(result.Actions,
			fmt.Sprintf("domain gap: pillar %s outside agent coverage", label))
	}

	// Step 5: escalation. Strategies run in fixed order: self-recursion with
	// an alternate algorithm first, peer delegation second. Peers are tried
	// in pool order and never revisited within one chain.
	if gap && depth < maxDepth {
		result.Actions = append(result.Actions, "gap detected, engaging recursive reasoning")
		a.escalate(ctx, node, algorithmID, pillars, depth, maxDepth, visited, peers, result, info)
	}

	// Step 6: autonomous research for whatever gap remains.
	if gap {
		result.Validation = a.research(&working, info)
	}

	return result
}

// validateAxes range-checks the axes present on the working copy and imputes
// the algorithm's required axes when absent. Violations are logged as
// actions; node validation hard failures belong to the orchestrator.
func (a *Agent) validateAxes(working *models.Node, algorithmID string, result *models.ProcessingResult) {
	for name, data := range working.AxisValues {
		if err := a.axisReg.Validate(name, data); err != nil {
			result.Actions = append(result.Actions, fmt.Sprintf("axis validation: %v", err))
		}
	}

	entry, ok := a.algorithms.Get(algorithmID)
	if !ok {
		return
	}
	for _, name := range entry.Required {
		if data, present := working.AxisValues[name]; present && len(data.Values) > 0 {
			continue
		}
		if working.AxisValues == nil {
			working.AxisValues = make(map[string]models.AxisData)
		}
		working.AxisValues[name] = models.AxisData{
			Values:  []float64{imputedAxisValue},
			Weights: []float64{1.0},
		}
		result.Actions = append(result.Actions,
			fmt.Sprintf("imputed missing axis %s with neutral default %.1f", name, imputedAxisValue))
	}
}

// escalate runs the fixed-order escalation strategies and appends their
// results to the subcall tree.
func (a *Agent) escalate(
	ctx context.Context,
	node models.Node,
	algorithmID string,
	pillars map[string]models.PillarLevel,
	depth, maxDepth int,
	visited map[string]struct{},
	peers []*Agent,
	result *models.ProcessingResult,
	info gapInfo,
) {
	nextVisited := extendVisited(visited, a.Profile.ID)

	// Strategy A: re-analyze with the first alternate algorithm in the
	// capability set.
	if alternate := a.chooseAlternate(algorithmID); alternate != "" {
		result.Actions = append(result.Actions,
			fmt.Sprintf("self-recursion with alternate algorithm %s", alternate))
		sub := a.Process(ctx, node, alternate, pillars, depth+1, maxDepth, nextVisited, peers)
		result.Subcalls = append(result.Subcalls, sub)
		return
	}

	// Strategy B: delegate to the first peer, in pool order, that covers the
	// node's pillar and has not been visited on this chain.
	for _, peer := range peers {
		if peer.Profile.ID == a.Profile.ID {
			continue
		}
		if _, seen := visited[peer.Profile.ID]; seen {
			continue
		}
		if !peer.Profile.CoversPillar(node.PillarLevelID) {
			continue
		}
		result.Actions = append(result.Actions,
			fmt.Sprintf("delegating to peer agent %s for pillar %s", peer.Profile.Name, node.PillarLevelID))
		sub := peer.Process(ctx, node, algorithmID, pillars, depth+1, maxDepth, nextVisited, peers)
		result.Subcalls = append(result.Subcalls, sub)

		// Adopt the peer's payload only when it is strictly more confident.
		// The sub-call result stays in the trace either way.
		if sub.Confidence > result.Confidence {
			result.Output = sub.Output
			result.Confidence = sub.Confidence
			result.Actions = append(result.Actions,
				fmt.Sprintf("adopted peer result from %s (confidence %.2f)", peer.Profile.Name, sub.Confidence))
		}
		return
	}
}

// chooseAlternate picks the first algorithm in the capability set different
// from the current one, or "" when none exists.
func (a *Agent) chooseAlternate(current string) string {
	for _, id := range a.Profile.AlgorithmsAvailable {
		if id != current && a.algorithms.Has(id) {
			return id
		}
	}
	return ""
}

// extendVisited returns a copy of visited including id. The set only grows
// along a recursion path; sibling branches are unaffected.
func extendVisited(visited map[string]struct{}, id string) map[string]struct{} {
	out := make(map[string]struct{}, len(visited)+1)
	for k := range visited {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}
