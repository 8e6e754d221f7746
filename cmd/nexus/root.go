package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "Multi-agent knowledge graph reasoning engine",
	Long: `Nexus dispatches reasoning agents across a knowledge graph. Each agent
evaluates nodes with its available algorithms, detects gaps in its own
answers, and escalates through alternate algorithms or peer agents until
a confident result emerges.

Core capabilities:
- Dispatches nodes across a pool of domain-scoped agents
- Recursive gap-driven escalation with cycle prevention
- Background research, validation, enrichment, and ensemble tasks
- SQLite-backed knowledge graph persistence`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
