package tasks

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalWatcher pauses and resumes the manager via files in a signals
// directory. Creating "pause" pauses admission and removing it resumes.
// Creating "stop" also pauses, and admission stays down while the stop
// file exists: running tasks drain, pending tasks wait, and pause-file
// churn cannot resume the manager until the stop file is removed.
type SignalWatcher struct {
	signalsDir string
	manager    *Manager

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates the signals directory and starts watching it.
// If the filesystem watcher cannot be created the watcher degrades to
// stat-based checks through ShouldStop. A nil manager is allowed for
// send-only use from another process.
func NewSignalWatcher(baseDir string, manager *Manager) (*SignalWatcher, error) {
	signalsDir := filepath.Join(baseDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		manager:    manager,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - callers can poll ShouldStop
		return sw, nil
	}
	sw.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sw.watcher = nil
		return sw, nil
	}

	go sw.watch()
	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if sw.manager == nil {
				continue
			}
			base := filepath.Base(event.Name)
			created := event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0
			removed := event.Op&fsnotify.Remove != 0

			switch {
			case base == "pause" && created:
				sw.manager.Pause()
			case base == "pause" && removed:
				if !sw.ShouldStop() {
					sw.manager.Resume()
				}
			case base == "stop" && created:
				sw.manager.Pause()
			case base == "stop" && removed:
				if !sw.pauseRequested() {
					sw.manager.Resume()
				}
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldStop reports whether a stop signal file exists. Checked directly in
// case the watcher missed the event.
func (sw *SignalWatcher) ShouldStop() bool {
	_, err := os.Stat(filepath.Join(sw.signalsDir, "stop"))
	return err == nil
}

// pauseRequested reports whether a pause signal file exists.
func (sw *SignalWatcher) pauseRequested() bool {
	_, err := os.Stat(filepath.Join(sw.signalsDir, "pause"))
	return err == nil
}

// SendPause creates the pause signal file.
func (sw *SignalWatcher) SendPause() error {
	path := filepath.Join(sw.signalsDir, "pause")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearPause removes the pause signal file.
func (sw *SignalWatcher) ClearPause() error {
	err := os.Remove(filepath.Join(sw.signalsDir, "pause"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SendStop creates the stop signal file.
func (sw *SignalWatcher) SendStop() error {
	path := filepath.Join(sw.signalsDir, "stop")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearStop removes the stop signal file.
func (sw *SignalWatcher) ClearStop() error {
	err := os.Remove(filepath.Join(sw.signalsDir, "stop"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close stops watching. Signal files on disk are left in place.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
