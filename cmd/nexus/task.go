package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nexus-ukg/nexus/internal/config"
	"github.com/nexus-ukg/nexus/internal/store"
	"github.com/nexus-ukg/nexus/internal/tasks"
	"github.com/nexus-ukg/nexus/pkg/models"
)

var (
	taskAlgorithm string
	taskPriority  int
	taskWait      time.Duration
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Schedule and inspect background tasks",
}

var taskPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause background task admission",
	Long: `Create the pause signal file. A running nexus process watching the
signals directory stops admitting pending tasks until the file is removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := signalSender()
		if err != nil {
			return err
		}
		defer sw.Close()
		if err := sw.SendPause(); err != nil {
			return err
		}
		fmt.Println("Pause signal sent")
		return nil
	},
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume background task admission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := signalSender()
		if err != nil {
			return err
		}
		defer sw.Close()
		if err := sw.ClearPause(); err != nil {
			return err
		}
		fmt.Println("Pause signal cleared")
		return nil
	},
}

var taskStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal running task processing to stop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := signalSender()
		if err != nil {
			return err
		}
		defer sw.Close()
		if err := sw.SendStop(); err != nil {
			return err
		}
		fmt.Println("Stop signal sent")
		return nil
	},
}

var taskRunCmd = &cobra.Command{
	Use:   "run <type> <node-id>",
	Short: "Schedule a background task and wait for it",
	Long: `Schedule a background task against a node and wait for it and any
cascaded follow-up tasks to finish.

Task types: research, validation, enrichment, ensemble

Examples:
  nexus task run ensemble node-42
  nexus task run research node-42 --algorithm risk_assessment`,
	Args: cobra.ExactArgs(2),
	RunE: runTaskRun,
}

func init() {
	taskRunCmd.Flags().StringVar(&taskAlgorithm, "algorithm", "", "Algorithm for the task's dispatches")
	taskRunCmd.Flags().IntVar(&taskPriority, "priority", 0, "Task priority metadata")
	taskRunCmd.Flags().DurationVar(&taskWait, "wait", 5*time.Minute, "How long to wait for completion")
	taskCmd.AddCommand(taskRunCmd)
	taskCmd.AddCommand(taskPauseCmd)
	taskCmd.AddCommand(taskResumeCmd)
	taskCmd.AddCommand(taskStopCmd)
}

// signalSender opens a send-only signal watcher rooted next to the database.
func signalSender() (*tasks.SignalWatcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		dbPath = store.DefaultDBPath()
	}
	return tasks.NewSignalWatcher(filepath.Dir(dbPath), nil)
}

func runTaskRun(cmd *cobra.Command, args []string) error {
	taskType := models.TaskType(args[0])
	if !taskType.Valid() {
		return fmt.Errorf("unknown task type %q", args[0])
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := context.Background()
	if err := eng.orch.LoadAgents(ctx); err != nil {
		return err
	}

	// React to pause/stop signal files from other nexus invocations while
	// this process waits on its tasks.
	sw, err := tasks.NewSignalWatcher(filepath.Dir(eng.store.Path()), eng.manager)
	if err != nil {
		return fmt.Errorf("watch signals: %w", err)
	}
	defer sw.Close()
	if sw.ShouldStop() {
		return fmt.Errorf("stop signal present; remove the signals/stop file to proceed")
	}

	params := map[string]any{}
	if taskAlgorithm != "" {
		params["algorithm_id"] = taskAlgorithm
	}

	task, err := eng.manager.Schedule(taskType, args[1], params, taskPriority)
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled %s task %s\n", task.Type, task.ID)

	final, err := waitForTask(eng, task.ID, taskWait)
	if err != nil {
		return err
	}
	printTask(final)

	// Cascaded tasks run in the same process; give them a chance to finish
	// before the store closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), taskWait)
	defer cancel()
	if err := eng.manager.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("waiting for cascaded tasks: %w", err)
	}

	for _, t := range eng.manager.List("") {
		if t.ID != task.ID && t.Status != models.TaskStatusPending {
			printTask(t)
		}
	}
	return nil
}

func waitForTask(eng *engine, id string, timeout time.Duration) (*models.Task, error) {
	deadline := time.Now().Add(timeout)
	for {
		task, ok := eng.manager.Get(id)
		if !ok {
			return nil, fmt.Errorf("task %s disappeared", id)
		}
		if task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusFailed {
			return task, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("task %s still %s after %s", id, task.Status, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func printTask(t *models.Task) {
	mark := color.GreenString("✓")
	if t.Status == models.TaskStatusFailed {
		mark = color.RedString("✗")
	}
	fmt.Printf("%s %s task %s: %s\n", mark, t.Type, t.ID, t.Status)
	if t.Error != "" {
		fmt.Printf("  error: %s\n", t.Error)
	}
	if len(t.Result) > 0 {
		out, err := json.MarshalIndent(t.Result, "  ", "  ")
		if err == nil {
			fmt.Printf("  %s\n", out)
		}
	}
}
