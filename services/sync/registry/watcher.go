// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOptions configures the staleness Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// invalidating. Default: 100ms.
	DebounceWindow time.Duration

	// IgnorePatterns are base-name glob patterns for files and
	// directories to ignore.
	IgnorePatterns []string

	// BufferSize is the size of the change buffer channel. Default: 256.
	BufferSize int
}

// DefaultWatcherOptions returns sensible defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 100 * time.Millisecond,
		IgnorePatterns: []string{".git", "node_modules", ".idea", "*.swp", "*.tmp"},
		BufferSize:     256,
	}
}

// Watcher invalidates registry entries when files change outside the
// engine.
//
// # Description
//
// The registry is advisory and can go stale when files are edited
// manually between reconciliation calls. The watcher observes the
// workspace root recursively and drops the registry entry for any
// changed file, so the next existence check falls through to actual
// file content. Changes are debounced so bursts of writes during active
// editing invalidate once.
//
// # Thread Safety
//
// Safe for concurrent use. Invalidation runs on a single goroutine.
type Watcher struct {
	root     string
	registry *Registry
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	logger   *slog.Logger

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a staleness watcher for the given workspace root.
//
// # Inputs
//
//   - root: Absolute path to the workspace root.
//   - reg: Registry to invalidate. Must not be nil.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready-to-use watcher (call Start to begin watching).
//   - error: Non-nil if the underlying fsnotify watcher could not be
//     created.
func NewWatcher(root string, reg *Registry, opts *WatcherOptions) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatcherOptions()
		opts = &defaults
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:     root,
		registry: reg,
		watcher:  fsw,
		debounce: opts.DebounceWindow,
		ignore:   opts.IgnorePatterns,
		logger:   slog.Default().With("component", "registry.Watcher"),
		changes:  make(chan string, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the workspace root recursively.
//
// Spawns two goroutines: an event processor translating fsnotify events
// into relative paths, and a debouncer invalidating registry entries.
// Both exit when Stop is called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable subtree, skip.
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) ignored(base string) bool {
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(filepath.Base(event.Name)) {
				continue
			}
			// New directories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			select {
			case w.changes <- filepath.ToSlash(rel):
			default:
				// Buffer full; a rebuild will reconverge.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		for path := range pending {
			w.registry.Invalidate(path)
		}
		if len(pending) > 0 {
			w.logger.Debug("invalidated stale entries", "files", len(pending))
		}
		pending = make(map[string]struct{})
		fire = nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.changes:
			if !strings.HasPrefix(path, "..") {
				pending[path] = struct{}{}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			flush()
		}
	}
}
