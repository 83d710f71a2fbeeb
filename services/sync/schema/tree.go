// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

import (
	"fmt"
	"path/filepath"
)

// Tree is an arena of schema nodes addressed by stable ID.
//
// # Description
//
// The tree exclusively owns all nodes. Parent and child relations are
// stored as IDs and resolved through the arena, so the object graph is
// acyclic even though the logical tree has back-references.
//
// # Thread Safety
//
// NOT safe for concurrent mutation; a reconciliation call assumes
// exclusive read access for its duration.
type Tree struct {
	nodes map[string]*Node
	roots []string
}

// NewTree builds an arena from a flat node list.
//
// # Description
//
// Nodes with an empty or unknown ParentID become roots. Child order is
// taken from each node's ChildIDs; nodes referenced as children by no
// parent are roots regardless of insertion order.
//
// # Inputs
//
//   - nodes: Flat list of nodes. IDs must be unique.
//
// # Outputs
//
//   - *Tree: The arena.
//   - error: ErrDuplicateID if two nodes share an ID.
func NewTree(nodes []*Node) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*Node, len(nodes))}

	for _, n := range nodes {
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		t.nodes[n.ID] = n
	}

	// Roots: nodes whose parent is absent from the arena.
	for _, n := range nodes {
		if n.ParentID == "" {
			t.roots = append(t.roots, n.ID)
			continue
		}
		if _, ok := t.nodes[n.ParentID]; !ok {
			t.roots = append(t.roots, n.ID)
		}
	}

	return t, nil
}

// Node returns the node with the given ID.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Parent returns the parent of n, if any.
func (t *Tree) Parent(n *Node) (*Node, bool) {
	if n == nil || n.ParentID == "" {
		return nil, false
	}
	p, ok := t.nodes[n.ParentID]
	return p, ok
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns the root nodes in insertion order.
func (t *Tree) Roots() []*Node {
	out := make([]*Node, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id])
	}
	return out
}

// Walk visits every node depth-first in root/child order.
//
// # Inputs
//
//   - fn: Visitor. Return false to stop the walk.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(id string) bool
	visit = func(id string) bool {
		n, ok := t.nodes[id]
		if !ok {
			return true
		}
		if !fn(n) {
			return false
		}
		for _, child := range n.ChildIDs {
			if !visit(child) {
				return false
			}
		}
		return true
	}

	for _, id := range t.roots {
		if !visit(id) {
			return
		}
	}
}

// OwningFilePath resolves the file path that owns a code element node.
//
// # Description
//
// Resolution order:
//  1. Walk the parent chain to the nearest ancestor of kind file and use
//     its path.
//  2. Parse a composite "file-path#element-name" key from the node's path.
//  3. Treat the node's own path as a file path when it carries a
//     recognized source-file extension.
//
// # Outputs
//
//   - string: Workspace-relative path of the owning file.
//   - error: ErrNoOwningFile if no strategy succeeds.
func (t *Tree) OwningFilePath(n *Node) (string, error) {
	for cur := n; cur != nil; {
		parent, ok := t.Parent(cur)
		if !ok {
			break
		}
		if parent.Kind == KindFile {
			return parent.Path, nil
		}
		cur = parent
	}

	if file, _, ok := SplitElementPath(n.Path); ok && file != "" {
		return file, nil
	}

	if n.Path != "" && IsSourceExtension(filepath.Ext(n.Path)) {
		return n.Path, nil
	}

	return "", fmt.Errorf("%w: node %s (%s)", ErrNoOwningFile, n.ID, n.Name)
}

// Clone returns a deep copy of the tree.
//
// Snapshots keep a copy of the schema as it was at capture time; cloning
// prevents later mutations from bleeding into history.
func (t *Tree) Clone() *Tree {
	clone := &Tree{
		nodes: make(map[string]*Node, len(t.nodes)),
		roots: append([]string(nil), t.roots...),
	}
	for id, n := range t.nodes {
		cp := *n
		cp.ChildIDs = append([]string(nil), n.ChildIDs...)
		clone.nodes[id] = &cp
	}
	return clone
}
