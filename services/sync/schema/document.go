// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// PlanRename is the wire form of a rename pair.
type PlanRename struct {
	Before *Node `json:"before" validate:"required"`
	After  *Node `json:"after" validate:"required"`
}

// PlanDiff is the wire form of a structural diff.
//
// Renamed entries carry both node versions inline because the before
// version is, by definition, no longer part of the current tree.
type PlanDiff struct {
	Added    []*Node      `json:"added,omitempty" validate:"dive,required"`
	Removed  []*Node      `json:"removed,omitempty" validate:"dive,required"`
	Renamed  []PlanRename `json:"renamed,omitempty" validate:"dive"`
	Modified []*Node      `json:"modified,omitempty" validate:"dive,required"`
}

// PlanDependencies is the wire form of one dependency-graph entry.
type PlanDependencies struct {
	Dependents []string `json:"dependents"`
}

// PlanDocument is the JSON sync plan consumed by the CLI.
//
// # Description
//
// A plan bundles the three inputs of a reconciliation call: the full
// current schema tree (flat node list), the structural diff, and the
// dependency graph keyed by node ID. Plans are produced by an external
// schema-diffing collaborator and treated as already semantically
// validated; LoadPlan only enforces structural well-formedness.
type PlanDocument struct {
	Nodes []*Node                     `json:"nodes" validate:"required,dive,required"`
	Diff  PlanDiff                    `json:"diff"`
	Graph map[string]PlanDependencies `json:"graph,omitempty"`
}

// LoadPlan decodes and validates a plan document.
//
// # Inputs
//
//   - r: JSON plan document.
//
// # Outputs
//
//   - *Tree: Arena built from the plan's node list.
//   - *Diff: Structural diff referencing the plan's inline nodes.
//   - map[string][]string: Dependency graph, node ID to downstream IDs.
//   - error: Non-nil on malformed JSON, failed validation, or duplicate
//     node IDs.
func LoadPlan(r io.Reader) (*Tree, *Diff, map[string][]string, error) {
	var doc PlanDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding plan: %w", err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, nil, nil, fmt.Errorf("validating plan: %w", err)
	}

	tree, err := NewTree(doc.Nodes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building tree: %w", err)
	}

	diff := &Diff{
		Added:    doc.Diff.Added,
		Removed:  doc.Diff.Removed,
		Modified: doc.Diff.Modified,
	}
	for _, rn := range doc.Diff.Renamed {
		diff.Renamed = append(diff.Renamed, Rename{Before: rn.Before, After: rn.After})
	}

	graph := make(map[string][]string, len(doc.Graph))
	for id, entry := range doc.Graph {
		graph[id] = entry.Dependents
	}

	return tree, diff, graph, nil
}
