package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nexus-ukg/nexus/internal/config"
	"github.com/nexus-ukg/nexus/internal/store"
)

var initSeedPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the knowledge graph database",
	Long: `Create the Nexus database, apply schema migrations, and optionally load
seed data (pillar levels, agents, nodes) from a YAML file.

Examples:
  nexus init
  nexus init --seed seeds/graph.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initSeedPath, "seed", "", "YAML seed file to load")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		dbPath = store.DefaultDBPath()
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		printStatus("✗", fmt.Sprintf("Could not open database at %s", dbPath), color.FgRed)
		return err
	}
	defer st.Close()
	printStatus("✓", fmt.Sprintf("Database at %s", dbPath), color.FgGreen)

	if err := st.Migrate(); err != nil {
		printStatus("✗", "Schema migration failed", color.FgRed)
		return err
	}
	printStatus("✓", "Schema up to date", color.FgGreen)

	if initSeedPath != "" {
		seed, err := store.LoadSeedFile(initSeedPath)
		if err != nil {
			printStatus("✗", fmt.Sprintf("Could not read seed file %s", initSeedPath), color.FgRed)
			return err
		}
		if err := st.Seed(context.Background(), seed); err != nil {
			printStatus("✗", "Seeding failed", color.FgRed)
			return err
		}
		printStatus("✓", fmt.Sprintf("Seeded %d pillar levels, %d agents, %d nodes",
			len(seed.PillarLevels), len(seed.Agents), len(seed.Nodes)), color.FgGreen)
	}

	if _, _, err := config.ResolveAPIKey(cfg); err != nil {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (research suggestions disabled)", color.FgYellow)
	} else {
		printStatus("✓", "Anthropic API key configured", color.FgGreen)
	}

	fmt.Printf("\n%s Nexus initialization complete\n", color.GreenString("✓"))
	return nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(os.Stdout, "%s %s\n", c.Sprint(symbol), message)
}
