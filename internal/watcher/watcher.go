// Package watcher provides debounced file system watching for language
// definitions and highlighted source files.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/quill/internal/log"
)

// Watcher monitors files and directories and sends the set of changed
// files once events settle.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	paths      []string
	extensions []string
	debounce   time.Duration

	// files are watched individually; dirs match any file with a wanted
	// extension.
	files map[string]bool
	dirs  map[string]bool

	onChange chan []string
	done     chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Paths are files or directories to watch. Directories are not walked.
	Paths []string
	// Extensions limits directory watches to files with these extensions,
	// such as ".yaml". Empty means every file.
	Extensions  []string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:  fsw,
		paths:      cfg.Paths,
		extensions: cfg.Extensions,
		debounce:   cfg.DebounceDur,
		files:      make(map[string]bool),
		dirs:       make(map[string]bool),
		onChange:   make(chan []string, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives the sorted paths of
// files changed since the previous notification.
//
// Files are watched through their parent directory so that editors saving
// by rename keep being noticed.
func (w *Watcher) Start() (<-chan []string, error) {
	watched := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}

		dir := abs
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
			dir = filepath.Dir(abs)
		}
		if watched[dir] {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		watched[dir] = true
	}

	log.Debug(log.CatWatcher, "watching", "files", len(w.files), "dirs", len(w.dirs))
	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		changed = make(map[string]bool)
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			changed[event.Name] = true

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			timer = nil
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for name := range changed {
				batch = append(batch, name)
			}
			sort.Strings(batch)
			clear(changed)

			log.Debug(log.CatWatcher, "files changed", "count", len(batch))
			select {
			case w.onChange <- batch:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a notification.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(name)))
}
