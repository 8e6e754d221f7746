package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nexus-ukg/nexus/internal/orchestrator"
	"github.com/nexus-ukg/nexus/pkg/models"
)

var (
	processAlgorithm string
	processAgents    []string
)

var processCmd = &cobra.Command{
	Use:   "process <node-id>",
	Short: "Dispatch a node across the agent pool",
	Long: `Dispatch a knowledge graph node to every capable agent and print their
results. Agents escalate recursively on gaps; the full reasoning tree is
persisted in each agent's trace.

Examples:
  nexus process node-42
  nexus process node-42 --algorithm risk_assessment
  nexus process node-42 --agents "AI Expert,Risk Analyst"`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processAlgorithm, "algorithm", "ai_knowledge_discovery", "Algorithm to dispatch")
	processCmd.Flags().StringSliceVar(&processAgents, "agents", nil, "Restrict dispatch to the named agents")
}

func runProcess(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := context.Background()
	if err := eng.orch.LoadAgents(ctx); err != nil {
		return err
	}

	node, err := eng.store.GetNode(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load node %s: %w", args[0], err)
	}

	results, err := eng.orch.ProcessNode(ctx, *node, processAlgorithm, processAgents...)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No agents capable of %s on pillar %s\n", processAlgorithm, node.PillarLevelID)
		return nil
	}

	fmt.Printf("Node %s (%s), algorithm %s:\n\n", node.ID, node.Label, processAlgorithm)
	for _, r := range results {
		printDispatchResult(r)
	}
	return nil
}

func printDispatchResult(r orchestrator.DispatchResult) {
	mark := color.GreenString("✓")
	if !r.Success {
		mark = color.RedString("✗")
	}
	fmt.Printf("%s %s", mark, r.AgentName)
	if r.Result != nil {
		fmt.Printf("  confidence %.2f", r.Result.Confidence)
	}
	fmt.Println()

	if r.Error != "" {
		fmt.Printf("    error: %s\n", r.Error)
	}
	if r.Result != nil {
		printResultTree(r.Result, 1)
	}
	fmt.Println()
}

func printResultTree(res *models.ProcessingResult, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, action := range res.Actions {
		fmt.Printf("%s- %s\n", indent, action)
	}
	if res.Output != nil && len(res.Output.Findings) > 0 {
		for _, f := range res.Output.Findings {
			fmt.Printf("%s* %s\n", indent, f)
		}
	}
	for _, sub := range res.Subcalls {
		fmt.Printf("%s%s %s [%s, depth %d]\n", indent,
			color.CyanString("↳"), sub.AgentName, sub.AlgorithmID, sub.RecursionDepth)
		printResultTree(sub, depth+1)
	}
}
