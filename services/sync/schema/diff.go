// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

// Rename pairs the before and after versions of a renamed node.
type Rename struct {
	Before *Node
	After  *Node
}

// Diff is the structural partition between two schema versions.
//
// # Description
//
// The four collections are disjoint: a node appears in at most one of
// them. A Diff is a transient input to a single reconciliation call and
// is never persisted.
type Diff struct {
	Added    []*Node
	Removed  []*Node
	Renamed  []Rename
	Modified []*Node
}

// Empty reports whether the diff carries no entries at all.
func (d *Diff) Empty() bool {
	if d == nil {
		return true
	}
	return len(d.Added) == 0 && len(d.Removed) == 0 &&
		len(d.Renamed) == 0 && len(d.Modified) == 0
}
