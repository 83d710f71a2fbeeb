// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine sequences schema-to-filesystem reconciliation.
//
// Given a structural diff between two schema versions plus a dependency
// graph, the engine computes and applies an ordered sequence of
// file-system and source-code mutations: renames, then removals, then
// additions (folders, files, code elements batched per file), then
// modifications. A failure on one node never aborts the batch; it is
// recorded as a skip operation and the loop continues.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/treeline-dev/treeline/services/sync/fsops"
	"github.com/treeline-dev/treeline/services/sync/mutator"
	"github.com/treeline-dev/treeline/services/sync/registry"
	"github.com/treeline-dev/treeline/services/sync/resolver"
	"github.com/treeline-dev/treeline/services/sync/schema"
	"github.com/treeline-dev/treeline/services/sync/snapshot"
)

// Config configures an Engine.
type Config struct {
	// FS is the file-system boundary. Required.
	FS fsops.Client

	// Logger overrides the default slog logger.
	Logger *slog.Logger

	// SnapshotCapacity overrides the bounded snapshot history size.
	// Zero uses snapshot.DefaultCapacity.
	SnapshotCapacity int
}

// Engine owns the mutable reconciliation state for one workspace session.
//
// # Description
//
// The registry and snapshot history are exclusively owned by the engine
// instance; there is no module-level state. Construct one engine per
// workspace and pass it to call sites.
//
// # Thread Safety
//
// A single Reconcile call is single-threaded-cooperative: all I/O is
// awaited in sequence so that same-file mutations observe each other's
// buffer before the terminal write. The engine holds no cross-call
// locks; concurrent Reconcile calls are safe only when they target
// disjoint file sets, and serializing overlapping calls is the caller's
// responsibility.
type Engine struct {
	fs        fsops.Client
	registry  *registry.Registry
	snapshots *snapshot.Store
	mutator   *mutator.Chain
	logger    *slog.Logger
}

// New creates an engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.FS == nil {
		return nil, fmt.Errorf("FS is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine.Engine")

	var snapOpts []snapshot.StoreOption
	if cfg.SnapshotCapacity > 0 {
		snapOpts = append(snapOpts, snapshot.WithCapacity(cfg.SnapshotCapacity))
	}

	return &Engine{
		fs:        cfg.FS,
		registry:  registry.New(),
		snapshots: snapshot.NewStore(cfg.FS, snapOpts...),
		mutator:   mutator.NewChain(),
		logger:    logger,
	}, nil
}

// Registry exposes the engine's element registry, e.g. for wiring a
// staleness watcher.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Reconcile applies a structural diff against the file system.
//
// # Description
//
// Executes the fixed pass order: registry rebuild, snapshot capture,
// partition of additions, renames, removals, additions (folders, files,
// code elements batched per owning file), modifications. Per-node
// failures become skip operations plus warnings; only setup-phase
// failures flip the result's success flag.
//
// # Inputs
//
//   - ctx: Honored at every file-system suspension point. A started
//     batch otherwise runs to completion.
//   - diff: The structural diff. May be nil or empty.
//   - current: The full current schema tree. Required.
//   - graph: Dependency graph for downstream reporting. May be nil.
//
// # Outputs
//
//   - *Result: Never nil. Success is true iff zero hard errors occurred.
func (e *Engine) Reconcile(ctx context.Context, diff *schema.Diff, current *schema.Tree, graph resolver.Graph) *Result {
	start := time.Now()
	res := newResult()
	logger := e.logger.With("session_id", uuid.NewString())

	defer func() {
		res.Success = len(res.Errors) == 0
		recordReconcile(ctx, time.Since(start), res)
		logger.Info("reconcile finished",
			"success", res.Success,
			"operations", len(res.Operations),
			"warnings", len(res.Warnings),
			"errors", len(res.Errors),
			"duration_ms", time.Since(start).Milliseconds())
	}()

	if current == nil {
		res.fatal("current schema tree is required")
		return res
	}

	// Setup phase. Failures here occur before any per-node scope and are
	// batch-fatal.
	e.registry.Rebuild(current)

	snap, err := e.snapshots.Capture(ctx, current)
	if err != nil {
		res.fatal("capturing snapshot: %v", err)
		return res
	}
	res.SnapshotToken = snap.Token

	if diff.Empty() {
		return res
	}

	folders, files, elements := e.partitionAdded(diff.Added, res)

	// Renames run before removals: the removal pass must not operate on
	// a path a rename has already vacated.
	e.applyRenames(ctx, diff.Renamed, current, res, logger)
	e.applyRemovals(ctx, diff.Removed, current, graph, res)
	e.addFolders(ctx, folders, res)
	e.addFiles(ctx, files, res)
	e.addElements(ctx, elements, current, res, logger)
	e.applyModifications(ctx, diff.Modified, current, res)

	return res
}

// RevertToSnapshot restores every file captured under token.
//
// Returns false when no snapshot matches the token or a restore write
// failed. Usable independently of Reconcile.
func (e *Engine) RevertToSnapshot(ctx context.Context, token string) bool {
	err := e.snapshots.Revert(ctx, token)
	recordRevert(ctx, err == nil)
	if err != nil {
		e.logger.Warn("revert failed", "token", token, "error", err)
		return false
	}
	return true
}

// SnapshotHistory returns retained snapshots from oldest to newest.
func (e *Engine) SnapshotHistory() []*snapshot.Snapshot {
	return e.snapshots.History()
}

// ClearHistory drops all retained snapshots.
func (e *Engine) ClearHistory() {
	e.snapshots.Clear()
}

// partitionAdded splits added nodes into folders, files, and code
// elements, recording non-structural entries as skipped.
func (e *Engine) partitionAdded(added []*schema.Node, res *Result) (folders, files, elements []*schema.Node) {
	for _, n := range added {
		if !n.IsStructural() {
			res.skipNonStructural(n)
			continue
		}
		switch n.Kind {
		case schema.KindDirectory:
			folders = append(folders, n)
		case schema.KindFile:
			files = append(files, n)
		default:
			elements = append(elements, n)
		}
	}
	return folders, files, elements
}

func (e *Engine) applyRenames(ctx context.Context, renames []schema.Rename, current *schema.Tree, res *Result, logger *slog.Logger) {
	for _, rn := range renames {
		before, after := rn.Before, rn.After
		if before == nil || after == nil {
			continue
		}
		if !before.IsStructural() || !after.IsStructural() {
			res.skipNonStructural(after)
			continue
		}

		switch after.Kind {
		case schema.KindDirectory, schema.KindFile:
			if before.Path == after.Path {
				res.skip(after, "Paths identical; nothing to rename")
				continue
			}
			if err := e.fs.Rename(ctx, before.Path, after.Path); err != nil {
				res.skipWarn(after, "renaming %s to %s: %v", before.Path, after.Path, err)
				continue
			}
			if after.Kind == schema.KindFile {
				e.registry.MoveFile(before.Path, after.Path)
			}
			res.append(Operation{
				Type:    OpRename,
				Node:    after,
				OldPath: before.Path,
				NewPath: after.Path,
			})

		case schema.KindFunction, schema.KindComponent:
			e.renameElement(ctx, before, after, current, res, logger)

		default:
			res.skip(after, "Rename not supported for kind %s", after.Kind)
		}
	}
}

// renameElement renames a code element in place, or moves it between
// files when its owning file changed.
func (e *Engine) renameElement(ctx context.Context, before, after *schema.Node, current *schema.Tree, res *Result, logger *slog.Logger) {
	oldFile, err := current.OwningFilePath(before)
	if err != nil {
		res.skipWarn(after, "resolving source file for %s: %v", before.Name, err)
		return
	}
	newFile, err := current.OwningFilePath(after)
	if err != nil {
		res.skipWarn(after, "resolving target file for %s: %v", after.Name, err)
		return
	}
	kind := mutator.KindOf(after.Kind)

	if oldFile == newFile {
		content, err := e.fs.ReadFile(ctx, oldFile)
		if err != nil {
			res.skipWarn(after, "reading %s: %v", oldFile, err)
			return
		}
		out, ok, err := e.mutator.Rename(ctx, filepath.Ext(oldFile), content, before.Name, after.Name)
		if err != nil {
			res.skipWarn(after, "renaming %s: %v", before.Name, err)
			return
		}
		if !ok {
			res.skipWarn(after, "renaming %s: element not found in %s", before.Name, oldFile)
			return
		}
		if err := e.fs.WriteFile(ctx, oldFile, out); err != nil {
			res.skipWarn(after, "writing %s: %v", oldFile, err)
			return
		}
		e.registry.RenameElement(oldFile, before.Name, after.Name)
		res.append(Operation{
			Type:    OpRename,
			Node:    after,
			OldPath: schema.ElementPath(oldFile, before.Name),
			NewPath: schema.ElementPath(newFile, after.Name),
		})
		return
	}

	// Owning file changed: extract from the source file, remove it
	// there, and re-emit into the target file.
	srcExt := filepath.Ext(oldFile)
	srcContent, err := e.fs.ReadFile(ctx, oldFile)
	if err != nil {
		res.skipWarn(after, "reading %s: %v", oldFile, err)
		return
	}
	text, err := e.mutator.Extract(ctx, srcExt, srcContent, before.Name, kind)
	if err != nil {
		res.skipWarn(after, "extracting %s from %s: %v", before.Name, oldFile, err)
		return
	}
	srcOut, ok, err := e.mutator.Remove(ctx, srcExt, srcContent, before.Name, kind)
	if err != nil || !ok {
		res.skipWarn(after, "removing %s from %s failed", before.Name, oldFile)
		return
	}

	if before.Name != after.Name {
		renamed, ok, err := e.mutator.Rename(ctx, srcExt, []byte(text), before.Name, after.Name)
		if err == nil && ok {
			text = string(renamed)
		} else {
			logger.Warn("element moved without rename",
				"old", before.Name, "new", after.Name)
		}
	}

	dstExt := filepath.Ext(newFile)
	dstContent, err := e.fs.ReadFile(ctx, newFile)
	if errors.Is(err, fsops.ErrNotFound) {
		dstContent = []byte(templateFor(dstExt))
	} else if err != nil {
		res.skipWarn(after, "reading %s: %v", newFile, err)
		return
	}

	if err := e.fs.WriteFile(ctx, oldFile, srcOut); err != nil {
		res.skipWarn(after, "writing %s: %v", oldFile, err)
		return
	}
	if err := e.fs.WriteFile(ctx, newFile, appendDeclaration(dstContent, text)); err != nil {
		res.skipWarn(after, "writing %s: %v", newFile, err)
		return
	}

	e.registry.Remove(oldFile, before.Name)
	e.registry.Add(newFile, after.Name)
	res.append(Operation{
		Type:    OpMove,
		Node:    after,
		OldPath: schema.ElementPath(oldFile, before.Name),
		NewPath: schema.ElementPath(newFile, after.Name),
	})
}

func (e *Engine) applyRemovals(ctx context.Context, removed []*schema.Node, current *schema.Tree, graph resolver.Graph, res *Result) {
	for _, n := range removed {
		if !n.IsStructural() {
			res.skipNonStructural(n)
			continue
		}

		// Blast radius is reported, never cascaded: dependents are the
		// caller's concern.
		downstream := resolver.DownstreamOf(n.ID, graph)

		switch n.Kind {
		case schema.KindDirectory, schema.KindFile:
			if err := e.fs.RemoveAll(ctx, n.Path); err != nil {
				res.skipWarn(n, "deleting %s: %v", n.Path, err)
				continue
			}
			if n.Kind == schema.KindFile {
				e.registry.RemoveFile(n.Path)
			}
			res.append(Operation{
				Type:            OpDelete,
				Node:            n,
				OldPath:         n.Path,
				AffectedNodeIDs: downstream,
			})

		case schema.KindFunction, schema.KindComponent:
			filePath, err := current.OwningFilePath(n)
			if err != nil {
				res.skipWarn(n, "resolving file for %s: %v", n.Name, err)
				continue
			}
			content, err := e.fs.ReadFile(ctx, filePath)
			if err != nil {
				res.skipWarn(n, "reading %s: %v", filePath, err)
				continue
			}
			out, ok, err := e.mutator.Remove(ctx, filepath.Ext(filePath), content, n.Name, mutator.KindOf(n.Kind))
			if err != nil {
				res.skipWarn(n, "removing %s: %v", n.Name, err)
				continue
			}
			if !ok {
				res.skipWarn(n, "removing %s: element not found in %s", n.Name, filePath)
				continue
			}
			if err := e.fs.WriteFile(ctx, filePath, out); err != nil {
				res.skipWarn(n, "writing %s: %v", filePath, err)
				continue
			}
			e.registry.Remove(filePath, n.Name)
			res.append(Operation{
				Type:            OpDelete,
				Node:            n,
				OldPath:         schema.ElementPath(filePath, n.Name),
				AffectedNodeIDs: downstream,
			})
		}
	}
}

func (e *Engine) addFolders(ctx context.Context, folders []*schema.Node, res *Result) {
	for _, n := range folders {
		if n.Path == "" {
			res.skipWarn(n, "folder %s has no path", n.Name)
			continue
		}
		// MkdirAll is idempotent; an existing directory is not an error.
		if err := e.fs.MkdirAll(ctx, n.Path); err != nil {
			res.skipWarn(n, "creating folder %s: %v", n.Path, err)
			continue
		}
		res.append(Operation{Type: OpCreateFolder, Node: n, NewPath: n.Path})
	}
}

func (e *Engine) addFiles(ctx context.Context, files []*schema.Node, res *Result) {
	for _, n := range files {
		if n.Path == "" {
			res.skipWarn(n, "file %s has no path", n.Name)
			continue
		}
		exists, err := e.fs.Exists(ctx, n.Path)
		if err != nil {
			res.skipWarn(n, "checking %s: %v", n.Path, err)
			continue
		}
		if exists {
			res.skip(n, "File already exists")
			continue
		}
		ext := n.Extension
		if ext == "" {
			ext = filepath.Ext(n.Path)
		}
		if err := e.fs.WriteFile(ctx, n.Path, []byte(templateFor(ext))); err != nil {
			res.skipWarn(n, "creating %s: %v", n.Path, err)
			continue
		}
		res.append(Operation{Type: OpCreateFile, Node: n, NewPath: n.Path})
	}
}

// addElements groups added code elements by resolved owning file and
// applies each group as one batched read-modify-write, because multiple
// elements commonly land in a freshly created file.
func (e *Engine) addElements(ctx context.Context, elements []*schema.Node, current *schema.Tree, res *Result, logger *slog.Logger) {
	var order []string
	batches := make(map[string][]*schema.Node)

	for _, n := range elements {
		filePath, err := current.OwningFilePath(n)
		if err != nil {
			res.skipWarn(n, "resolving file for %s: %v", n.Name, err)
			continue
		}
		if _, seen := batches[filePath]; !seen {
			order = append(order, filePath)
		}
		batches[filePath] = append(batches[filePath], n)
	}

	for _, filePath := range order {
		e.addElementBatch(ctx, filePath, batches[filePath], res, logger)
	}
}

func (e *Engine) addElementBatch(ctx context.Context, filePath string, nodes []*schema.Node, res *Result, logger *slog.Logger) {
	ext := filepath.Ext(filePath)

	buf, err := e.fs.ReadFile(ctx, filePath)
	if errors.Is(err, fsops.ErrNotFound) {
		buf = []byte(templateFor(ext))
	} else if err != nil {
		for _, n := range nodes {
			res.skipWarn(n, "reading %s: %v", filePath, err)
		}
		return
	}

	var pending []*schema.Node
	for _, n := range nodes {
		kind := mutator.KindOf(n.Kind)

		// The registry is advisory; existence is always re-validated
		// against the actual buffer before skipping.
		if e.registry.Has(filePath, n.Name) {
			if e.mutator.Exists(ctx, ext, buf, n.Name, kind) {
				res.skip(n, "Element already exists")
				continue
			}
			logger.Debug("stale registry entry",
				"file", filePath, "element", n.Name)
		} else if e.mutator.Exists(ctx, ext, buf, n.Name, kind) {
			e.registry.Add(filePath, n.Name)
			res.skip(n, "Element already exists")
			continue
		}

		out, err := e.mutator.InsertPlaceholder(ctx, ext, buf, n)
		if err != nil {
			res.skipWarn(n, "inserting placeholder for %s: %v", n.Name, err)
			continue
		}
		buf = out
		pending = append(pending, n)
	}

	if len(pending) == 0 {
		return
	}

	// Single terminal write for the whole batch.
	if err := e.fs.WriteFile(ctx, filePath, buf); err != nil {
		for _, n := range pending {
			res.skipWarn(n, "writing %s: %v", filePath, err)
		}
		return
	}
	for _, n := range pending {
		e.registry.Add(filePath, n.Name)
		res.append(Operation{
			Type:    OpCreatePlaceholder,
			Node:    n,
			NewPath: schema.ElementPath(filePath, n.Name),
		})
	}
}

// applyModifications refreshes placeholder bodies so signature changes
// on unimplemented elements stay reflected. Hand-implemented elements
// are deliberately left untouched; re-synchronizing them is an explicit
// non-goal.
func (e *Engine) applyModifications(ctx context.Context, modified []*schema.Node, current *schema.Tree, res *Result) {
	for _, n := range modified {
		if !n.IsStructural() {
			res.skipNonStructural(n)
			continue
		}
		if !n.IsElement() {
			res.skip(n, "Modification not supported for kind %s", n.Kind)
			continue
		}

		filePath, err := current.OwningFilePath(n)
		if err != nil {
			res.skipWarn(n, "resolving file for %s: %v", n.Name, err)
			continue
		}
		ext := filepath.Ext(filePath)
		kind := mutator.KindOf(n.Kind)

		content, err := e.fs.ReadFile(ctx, filePath)
		if err != nil {
			res.skipWarn(n, "reading %s: %v", filePath, err)
			continue
		}

		text, err := e.mutator.Extract(ctx, ext, content, n.Name, kind)
		if err != nil {
			res.skipWarn(n, "refreshing %s: %v", n.Name, err)
			continue
		}
		if !mutator.IsPlaceholder(text, n.Name) {
			res.skip(n, "Element already implemented; left untouched")
			continue
		}

		out, ok, err := e.mutator.Remove(ctx, ext, content, n.Name, kind)
		if err != nil || !ok {
			res.skipWarn(n, "refreshing %s: stale placeholder could not be removed", n.Name)
			continue
		}
		out, err = e.mutator.InsertPlaceholder(ctx, ext, out, n)
		if err != nil {
			res.skipWarn(n, "refreshing %s: %v", n.Name, err)
			continue
		}
		if err := e.fs.WriteFile(ctx, filePath, out); err != nil {
			res.skipWarn(n, "writing %s: %v", filePath, err)
			continue
		}
		res.append(Operation{
			Type:    OpCreatePlaceholder,
			Node:    n,
			NewPath: schema.ElementPath(filePath, n.Name),
		})
	}
}

// appendDeclaration appends a declaration's text to file content with
// blank-line separation, preserving a trailing newline.
func appendDeclaration(content []byte, text string) []byte {
	s := string(content)
	switch {
	case len(s) == 0:
		s = text + "\n"
	case s[len(s)-1] == '\n':
		s += "\n" + text + "\n"
	default:
		s += "\n\n" + text + "\n"
	}
	return []byte(s)
}
