// Package watch reruns suites when their files change. Events are
// debounced so editor save bursts trigger one run, not five; the
// rerun itself always builds a fresh registry, because a sealed
// registry is never reopened.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"matcha/internal/logging"
)

const (
	defaultDebounce = 500 * time.Millisecond
	sweepInterval   = 100 * time.Millisecond
)

// Options configures a Watcher.
type Options struct {
	// Paths are the suite files or directories to watch.
	Paths []string
	// MatcherDir, when set, is also watched; .go files under it
	// trigger reruns so editing a user matcher re-evaluates suites.
	MatcherDir string
	// Debounce is the settle window per file. Zero means the default.
	Debounce time.Duration
}

// Stats tracks watcher activity.
type Stats struct {
	EventsSeen    int
	RunsTriggered int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Watcher debounces filesystem events and invokes a callback with the
// settled set of changed files.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	opts        Options
	onChange    func(changed []string)
	debounceMap map[string]time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a Watcher. onChange runs on the watcher goroutine, so
// it should hand off long work rather than block event handling.
func New(opts Options, onChange func(changed []string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	return &Watcher{
		watcher:     fw,
		opts:        opts,
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.watchDirs() {
		if err := w.watcher.Add(dir); err != nil {
			logging.Get(logging.CategoryWatch).Warn("Cannot watch %s: %v", dir, err)
			continue
		}
		logging.Watch("Watching %s", dir)
	}

	go w.run(ctx)
	return nil
}

// watchDirs resolves the configured paths to a deduplicated set of
// directories. fsnotify watches directories, not globs; a file path
// means watching its parent.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, path := range w.opts.Paths {
		stat, err := os.Stat(path)
		if err != nil {
			logging.WatchDebug("Skipping unwatchable path %s: %v", path, err)
			continue
		}
		if stat.IsDir() {
			add(path)
		} else {
			add(filepath.Dir(path))
		}
	}
	if w.opts.MatcherDir != "" {
		if stat, err := os.Stat(w.opts.MatcherDir); err == nil && stat.IsDir() {
			add(w.opts.MatcherDir)
		}
	}
	return dirs
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-sweep.C:
			w.flushSettled()
		}
	}
}

// handleEvent records a relevant filesystem event for debouncing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.relevant(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return // chmod and friends
	}

	logging.WatchDebug("Event %s on %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// relevant reports whether a changed path should trigger a rerun:
// suite YAML anywhere, Go files only under the user matcher dir.
func (w *Watcher) relevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".go":
		if w.opts.MatcherDir == "" {
			return false
		}
		rel, err := filepath.Rel(w.opts.MatcherDir, path)
		return err == nil && !strings.HasPrefix(rel, "..")
	default:
		return false
	}
}

// flushSettled fires the callback for files whose last event is older
// than the debounce window.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	var changed []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.opts.Debounce {
			changed = append(changed, path)
			delete(w.debounceMap, path)
		}
	}
	if len(changed) > 0 {
		w.stats.RunsTriggered++
	}
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	logging.Watch("Change settled: %d file(s), rerunning", len(changed))
	logging.Audit().WatchTrigger(changed)
	if w.onChange != nil {
		w.onChange(changed)
	}
}

// GetStats returns a copy of the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
