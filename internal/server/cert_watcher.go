package server

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumind/internal/errors"
)

// certWatcher watches certificate files and triggers a debounced
// reload callback when any of them change
type certWatcher struct {
	mu sync.Mutex

	files         []string
	debounceDelay time.Duration
	debounceTimer *time.Timer

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

func newCertWatcher(files []string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) *certWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	watched := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			watched = append(watched, f)
		}
	}

	return &certWatcher{
		files:          watched,
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadCallback: reloadCallback,
		logger:         logger,
	}
}

// Start begins watching the certificate files
func (cw *certWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	// Watching the directory catches atomic writes (rename-into-place)
	// that a watch on the file itself would miss
	dirs := map[string]bool{}
	for _, f := range cw.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			if closeErr := watcher.Close(); closeErr != nil && cw.logger != nil {
				cw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
			}
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.files,
			"debounce_delay", cw.debounceDelay)
	}
	return nil
}

// Stop stops the certificate file watcher
func (cw *certWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	if err := cw.fsWatcher.Close(); err != nil {
		if cw.logger != nil {
			cw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}

	cw.running = false

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

// watchLoop is the main event loop for file watching
func (cw *certWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.isWatchedFile(event.Name) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.stopChan:
			return
		}
	}
}

func (cw *certWatcher) isWatchedFile(name string) bool {
	for _, f := range cw.files {
		if name == f || filepath.Base(name) == filepath.Base(f) {
			return true
		}
	}
	return false
}

// scheduleReload schedules a debounced reload callback
func (cw *certWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, cw.reloadCallback)
}

// IsRunning returns whether the watcher is currently running
func (cw *certWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}
