// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package snapshot keeps a bounded history of point-in-time captures of
// the file contents referenced by the current schema, keyed by an opaque
// revert token.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/treeline-dev/treeline/services/sync/fsops"
	"github.com/treeline-dev/treeline/services/sync/schema"
)

// DefaultCapacity is the number of snapshots retained before the oldest
// is evicted.
const DefaultCapacity = 10

// ErrSnapshotNotFound indicates no snapshot matches the given token.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one point-in-time capture.
//
// # Description
//
// Files maps workspace-relative paths to full file content at capture
// time. Tree is a deep copy of the schema as it was. The capture
// timestamp doubles as the revert token. Snapshots are read by revert and
// never mutated after creation.
type Snapshot struct {
	// TakenAt is the capture time.
	TakenAt time.Time

	// Token identifies the snapshot for revert. Derived from TakenAt.
	Token string

	// Files maps relative file path to content at capture time.
	Files map[string]string

	// Tree is a copy of the schema tree at capture time.
	Tree *schema.Tree
}

// StoreOption is a functional option for configuring a Store.
type StoreOption func(*Store)

// WithCapacity overrides the bounded history size.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.history = newRingBuffer[*Snapshot](n)
		}
	}
}

// WithLogger overrides the store's logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store owns the bounded snapshot history for one engine instance.
//
// # Thread Safety
//
// Safe for concurrent use, though the engine calls it sequentially
// within one reconciliation.
type Store struct {
	mu      sync.Mutex
	fs      fsops.Client
	history *ringBuffer[*Snapshot]
	logger  *slog.Logger
}

// NewStore creates a snapshot store reading and restoring files through
// the given file-system client.
func NewStore(fs fsops.Client, opts ...StoreOption) *Store {
	s := &Store{
		fs:      fs,
		history: newRingBuffer[*Snapshot](DefaultCapacity),
		logger:  slog.Default().With("component", "snapshot.Store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture records the content of every file node reachable in the tree.
//
// # Description
//
// Walks the tree and reads each structural file node's content. Files
// missing on disk are tolerated and simply omitted from the capture. The
// snapshot is appended to history, evicting the oldest when over
// capacity.
//
// # Inputs
//
//   - ctx: Context honored at each file read.
//   - tree: Current schema tree.
//
// # Outputs
//
//   - *Snapshot: The capture, already appended to history.
//   - error: Non-nil only for I/O failures other than "not found".
func (s *Store) Capture(ctx context.Context, tree *schema.Tree) (*Snapshot, error) {
	now := time.Now()
	snap := &Snapshot{
		TakenAt: now,
		Token:   strconv.FormatInt(now.UnixNano(), 10),
		Files:   make(map[string]string),
	}
	if tree != nil {
		snap.Tree = tree.Clone()
	}

	var captureErr error
	if tree != nil {
		tree.Walk(func(n *schema.Node) bool {
			if n.Kind != schema.KindFile || !n.IsStructural() || n.Path == "" {
				return true
			}
			content, err := s.fs.ReadFile(ctx, n.Path)
			if err != nil {
				if errors.Is(err, fsops.ErrNotFound) {
					return true // Not on disk yet; omit.
				}
				captureErr = fmt.Errorf("capturing %s: %w", n.Path, err)
				return false
			}
			snap.Files[n.Path] = string(content)
			return true
		})
	}
	if captureErr != nil {
		return nil, captureErr
	}

	s.mu.Lock()
	s.history.push(snap)
	s.mu.Unlock()

	s.logger.Debug("snapshot captured",
		"token", snap.Token,
		"files", len(snap.Files))
	return snap, nil
}

// History returns all snapshots from oldest to newest.
func (s *Store) History() []*Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.slice()
}

// Find returns the snapshot matching the token.
func (s *Store) Find(token string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *Snapshot
	s.history.forEach(func(snap *Snapshot) bool {
		if snap.Token == token {
			found = snap
			return false
		}
		return true
	})
	return found, found != nil
}

// Revert restores every captured file's content to its captured value.
//
// # Description
//
// This is not a full point-in-time restore: files created after the
// snapshot are not deleted, and files deleted after the snapshot whose
// content was not captured are not recreated. Captured files that were
// deleted afterwards are rewritten, since their content is known.
//
// # Outputs
//
//   - error: ErrSnapshotNotFound if no snapshot matches the token, or the
//     first write failure.
func (s *Store) Revert(ctx context.Context, token string) error {
	snap, ok := s.Find(token)
	if !ok {
		return fmt.Errorf("%w: token %s", ErrSnapshotNotFound, token)
	}

	for path, content := range snap.Files {
		if err := s.fs.WriteFile(ctx, path, []byte(content)); err != nil {
			return fmt.Errorf("restoring %s: %w", path, err)
		}
	}

	s.logger.Info("snapshot restored",
		"token", token,
		"files", len(snap.Files))
	return nil
}

// Clear drops all snapshots.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.clear()
}

// Len returns the number of retained snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.len()
}
