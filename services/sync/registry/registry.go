// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package registry tracks, per file, the set of top-level code-element
// names known to exist in that file. The engine uses it to short-circuit
// duplicate creation before invoking the code mutator.
//
// Registry state is advisory: it can go stale relative to manual edits,
// so the engine always re-validates existence against actual file content
// before skipping an addition.
package registry

import (
	"sync"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

// Registry maps file paths to known top-level element names.
//
// # Thread Safety
//
// Safe for concurrent use. The engine mutates it sequentially, but the
// staleness watcher invalidates entries from its own goroutine.
type Registry struct {
	mu    sync.RWMutex
	files map[string]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{files: make(map[string]map[string]struct{})}
}

// Rebuild replaces all registry state from the current schema tree.
//
// # Description
//
// Walks the tree depth-first and records every non-freeform function and
// component node under the file path resolved by
// schema.Tree.OwningFilePath. Elements whose owning file cannot be
// resolved are skipped; the engine reports those per-node when it
// actually processes them.
func (r *Registry) Rebuild(tree *schema.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = make(map[string]map[string]struct{})
	if tree == nil {
		return
	}

	tree.Walk(func(n *schema.Node) bool {
		if !n.IsElement() || !n.IsStructural() {
			return true
		}
		filePath, err := tree.OwningFilePath(n)
		if err != nil {
			return true
		}
		r.addLocked(filePath, n.Name)
		return true
	})
}

func (r *Registry) addLocked(filePath, name string) {
	set, ok := r.files[filePath]
	if !ok {
		set = make(map[string]struct{})
		r.files[filePath] = set
	}
	set[name] = struct{}{}
}

// Has reports whether name is known to exist in filePath.
func (r *Registry) Has(filePath, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.files[filePath]
	if !ok {
		return false
	}
	_, ok = set[name]
	return ok
}

// Add records name as existing in filePath.
func (r *Registry) Add(filePath, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(filePath, name)
}

// Remove forgets name in filePath.
func (r *Registry) Remove(filePath, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.files[filePath]; ok {
		delete(set, name)
		if len(set) == 0 {
			delete(r.files, filePath)
		}
	}
}

// RenameElement moves an element between names within one file.
func (r *Registry) RenameElement(filePath, oldName, newName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.files[filePath]
	if !ok {
		return
	}
	if _, ok := set[oldName]; ok {
		delete(set, oldName)
		set[newName] = struct{}{}
	}
}

// MoveFile moves all element entries from oldPath to newPath.
func (r *Registry) MoveFile(oldPath, newPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.files[oldPath]
	if !ok {
		return
	}
	delete(r.files, oldPath)
	r.files[newPath] = set
}

// RemoveFile forgets every element recorded under filePath.
func (r *Registry) RemoveFile(filePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, filePath)
}

// Invalidate drops the entry for filePath. Called by the staleness
// watcher when a file changes outside the engine.
func (r *Registry) Invalidate(filePath string) {
	r.RemoveFile(filePath)
}

// Elements returns the known element names for filePath, unordered.
func (r *Registry) Elements(filePath string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.files[filePath]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// Clear removes all registry state.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = make(map[string]map[string]struct{})
}

// Len returns the number of files with at least one known element.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
