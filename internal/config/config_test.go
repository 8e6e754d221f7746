package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.MaxRecursion != 3 {
		t.Errorf("expected default max_recursion 3, got %d", cfg.Engine.MaxRecursion)
	}

	if cfg.Engine.MaxConcurrentTasks != 5 {
		t.Errorf("expected default max_concurrent_tasks 5, got %d", cfg.Engine.MaxConcurrentTasks)
	}

	if cfg.Engine.ConfidenceThreshold != 0.7 {
		t.Errorf("expected default confidence_threshold 0.7, got %v", cfg.Engine.ConfidenceThreshold)
	}

	if cfg.Engine.TaskTimeout != 2*time.Minute {
		t.Errorf("expected default task_timeout 2m, got %v", cfg.Engine.TaskTimeout)
	}

	if cfg.Anthropic.Model == "" {
		t.Error("expected a default model")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-opus-4-1
engine:
  max_recursion: 5
  max_concurrent_tasks: 8
  confidence_threshold: 0.6
  task_timeout: 90s
store:
  db_path: /tmp/test-graph.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Anthropic.Model != "claude-opus-4-1" {
		t.Errorf("expected model 'claude-opus-4-1', got %q", cfg.Anthropic.Model)
	}

	if cfg.Engine.MaxRecursion != 5 {
		t.Errorf("expected max_recursion 5, got %d", cfg.Engine.MaxRecursion)
	}

	if cfg.Engine.MaxConcurrentTasks != 8 {
		t.Errorf("expected max_concurrent_tasks 8, got %d", cfg.Engine.MaxConcurrentTasks)
	}

	if cfg.Engine.ConfidenceThreshold != 0.6 {
		t.Errorf("expected confidence_threshold 0.6, got %v", cfg.Engine.ConfidenceThreshold)
	}

	if cfg.Engine.TaskTimeout != 90*time.Second {
		t.Errorf("expected task_timeout 90s, got %v", cfg.Engine.TaskTimeout)
	}

	if cfg.Store.DBPath != "/tmp/test-graph.db" {
		t.Errorf("expected db_path '/tmp/test-graph.db', got %q", cfg.Store.DBPath)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Partial config: unset keys fall back to defaults
	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Engine.MaxRecursion != 3 {
		t.Errorf("expected default max_recursion 3, got %d", cfg.Engine.MaxRecursion)
	}
	if cfg.Engine.TaskTimeout != 2*time.Minute {
		t.Errorf("expected default task_timeout 2m, got %v", cfg.Engine.TaskTimeout)
	}
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	os.Setenv("TEST_NEXUS_KEY", "expanded-value")
	defer os.Unsetenv("TEST_NEXUS_KEY")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: ${TEST_NEXUS_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", cfg.Anthropic.APIKey)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/nexus"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}
