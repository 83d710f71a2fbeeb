// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolver answers downstream-impact lookups against the
// dependency graph produced by an external collaborator.
//
// The graph is consumed read-only and used purely for reporting blast
// radius: removal of a node proceeds regardless of whether dependents
// exist, and the engine never cascade-deletes. Because the relation is
// read-only here, no cycle detection is needed.
package resolver

// Entry holds the downstream references of one node.
type Entry struct {
	// Dependents lists the IDs of nodes that reference this node.
	Dependents []string
}

// Graph maps node IDs to their dependency entries.
type Graph map[string]Entry

// FromAdjacency builds a Graph from a plain ID-to-dependents map, as
// decoded from a plan document.
func FromAdjacency(adj map[string][]string) Graph {
	g := make(Graph, len(adj))
	for id, deps := range adj {
		g[id] = Entry{Dependents: deps}
	}
	return g
}

// DownstreamOf returns the IDs of nodes affected by removing nodeID.
//
// # Outputs
//
//   - []string: A copy of the dependent list; empty (nil) when the node
//     is absent from the graph.
func DownstreamOf(nodeID string, graph Graph) []string {
	entry, ok := graph[nodeID]
	if !ok || len(entry.Dependents) == 0 {
		return nil
	}
	out := make([]string, len(entry.Dependents))
	copy(out, entry.Dependents)
	return out
}
