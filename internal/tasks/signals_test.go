package tasks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexus-ukg/nexus/pkg/models"
)

func TestSignalWatcherPauseResume(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	base := t.TempDir()
	sw, err := NewSignalWatcher(base, m)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()
	if sw.watcher == nil {
		t.Skip("filesystem watcher unavailable")
	}

	if err := sw.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}

	// Wait for the event to land, then verify admission is deferred.
	deadline := time.Now().Add(2 * time.Second)
	var task *models.Task
	for {
		task, err = m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0)
		if err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
		if task.Status == models.TaskStatusPending {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pause signal never took effect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	snap, _ := m.Get(task.ID)
	if snap.Status != models.TaskStatusPending {
		t.Fatalf("status while paused = %s, want pending", snap.Status)
	}

	if err := sw.ClearPause(); err != nil {
		t.Fatalf("ClearPause failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Errorf("status after resume = %s (%s)", final.Status, final.Error)
	}
}

func TestSignalWatcherStopBlocksResume(t *testing.T) {
	m := testManager(t, seededStore(), Config{})

	sw, err := NewSignalWatcher(t.TempDir(), m)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()
	if sw.watcher == nil {
		t.Skip("filesystem watcher unavailable")
	}

	if err := sw.SendStop(); err != nil {
		t.Fatalf("SendStop failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var task *models.Task
	for {
		task, err = m.Schedule(models.TaskTypeEnsemble, "node-1", nil, 0)
		if err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
		if task.Status == models.TaskStatusPending {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stop signal never took effect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Pause-file churn must not resume admission while the stop file exists.
	if err := sw.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}
	if err := sw.ClearPause(); err != nil {
		t.Fatalf("ClearPause failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if !sw.ShouldStop() {
		t.Fatal("stop file disappeared")
	}
	snap, _ := m.Get(task.ID)
	if snap.Status != models.TaskStatusPending {
		t.Fatalf("status after pause churn = %s, want pending", snap.Status)
	}

	// Removing the stop file releases admission.
	if err := sw.ClearStop(); err != nil {
		t.Fatalf("ClearStop failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Errorf("status after stop cleared = %s (%s)", final.Status, final.Error)
	}
}

func TestSignalWatcherShouldStop(t *testing.T) {
	base := t.TempDir()
	sw, err := NewSignalWatcher(base, nil)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	if sw.ShouldStop() {
		t.Fatal("ShouldStop true before any signal")
	}
	if err := sw.SendStop(); err != nil {
		t.Fatalf("SendStop failed: %v", err)
	}
	if !sw.ShouldStop() {
		t.Error("ShouldStop false after SendStop")
	}
	if _, err := os.Stat(filepath.Join(base, "signals", "stop")); err != nil {
		t.Errorf("stop file missing: %v", err)
	}
}

func TestSignalWatcherClearPauseIdempotent(t *testing.T) {
	sw, err := NewSignalWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	if err := sw.ClearPause(); err != nil {
		t.Errorf("ClearPause without a pause file: %v", err)
	}
}
