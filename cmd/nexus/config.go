package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nexus-ukg/nexus/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Nexus configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/nexus/config.yaml
Project-specific overrides can be placed in .nexus.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	key, source, _ := config.ResolveAPIKey(cfg)

	fmt.Printf("anthropic.api_key: %s (%s)\n", config.MaskAPIKey(key), source)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("engine.max_recursion: %d\n", cfg.Engine.MaxRecursion)
	fmt.Printf("engine.max_concurrent_tasks: %d\n", cfg.Engine.MaxConcurrentTasks)
	fmt.Printf("engine.confidence_threshold: %g\n", cfg.Engine.ConfidenceThreshold)
	fmt.Printf("engine.task_timeout: %s\n", cfg.Engine.TaskTimeout)
	fmt.Printf("engine.debug_log: %s\n", cfg.Engine.DebugLog)
	fmt.Printf("store.db_path: %s\n", cfg.Store.DBPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		resolved, _, err := config.ResolveAPIKey(cfg)
		if err != nil {
			return "(not set)", nil
		}
		return config.MaskAPIKey(resolved), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "engine.max_recursion":
		return strconv.Itoa(cfg.Engine.MaxRecursion), nil
	case "engine.max_concurrent_tasks":
		return strconv.Itoa(cfg.Engine.MaxConcurrentTasks), nil
	case "engine.confidence_threshold":
		return strconv.FormatFloat(cfg.Engine.ConfidenceThreshold, 'g', -1, 64), nil
	case "engine.task_timeout":
		return cfg.Engine.TaskTimeout.String(), nil
	case "engine.debug_log":
		return cfg.Engine.DebugLog, nil
	case "store.db_path":
		return cfg.Store.DBPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "engine.max_recursion":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_recursion: %w", err)
		}
		cfg.Engine.MaxRecursion = n
	case "engine.max_concurrent_tasks":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_concurrent_tasks: %w", err)
		}
		cfg.Engine.MaxConcurrentTasks = n
	case "engine.confidence_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for confidence_threshold: %w", err)
		}
		cfg.Engine.ConfidenceThreshold = f
	case "engine.task_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for task_timeout: %w", err)
		}
		cfg.Engine.TaskTimeout = d
	case "engine.debug_log":
		cfg.Engine.DebugLog = value
	case "store.db_path":
		cfg.Store.DBPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
