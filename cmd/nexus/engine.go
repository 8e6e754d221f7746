package main

import (
	"fmt"

	"github.com/nexus-ukg/nexus/internal/algorithm"
	"github.com/nexus-ukg/nexus/internal/axes"
	"github.com/nexus-ukg/nexus/internal/config"
	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/internal/orchestrator"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/internal/tasks"
)

// engine bundles the wired-up components behind the CLI commands.
type engine struct {
	cfg     *config.Config
	store   *store.SQLiteStore
	orch    *orchestrator.Orchestrator
	manager *tasks.Manager
	logger  *orchestrator.DebugLogger
}

// buildEngine loads configuration and constructs the full stack: store,
// registries, orchestrator, and task manager. The reasoning backend is only
// attached when an API key resolves; everything else works without it.
func buildEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Engine.DebugLog)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}

	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		dbPath = store.DefaultDBPath()
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:        st,
		Algorithms:   algorithm.NewRegistry(),
		Axes:         axes.NewRegistry(),
		MaxRecursion: cfg.Engine.MaxRecursion,
		Logger:       logger,
	})

	var backend llm.ReasoningBackend
	if key, _, err := config.ResolveAPIKey(cfg); err == nil {
		client, err := llm.NewClient(llm.ClientConfig{
			Model:         llm.ModelFromName(cfg.Anthropic.Model),
			APIKey:        key,
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			logger.Log("reasoning backend unavailable: %v", err)
		} else {
			backend = client
		}
	}

	manager := tasks.NewManager(tasks.Config{
		Orchestrator:  orch,
		Store:         st,
		Backend:       backend,
		MaxConcurrent: cfg.Engine.MaxConcurrentTasks,
		TaskTimeout:   cfg.Engine.TaskTimeout,
		Logger:        logger,
	})

	return &engine{
		cfg:     cfg,
		store:   st,
		orch:    orch,
		manager: manager,
		logger:  logger,
	}, nil
}

// close releases the engine's resources.
func (e *engine) close() {
	e.store.Close()
	e.logger.Close()
}
