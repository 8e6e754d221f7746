package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List configured agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		ctx := context.Background()
		profiles, err := eng.store.ListAgents(ctx)
		if err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("No agents configured. Run 'nexus init --seed <file>' to load some.")
			return nil
		}

		for _, p := range profiles {
			fmt.Printf("%s (%s)\n", p.Name, p.ID)
			fmt.Printf("  pillars:    %s\n", strings.Join(p.DomainCoverage, ", "))
			fmt.Printf("  algorithms: %s\n", strings.Join(p.AlgorithmsAvailable, ", "))
			if len(p.Capabilities) > 0 {
				fmt.Printf("  modes:      %s\n", strings.Join(p.Capabilities, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}
