// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"fmt"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

// Result is the sole externally observable artifact of a reconciliation.
//
// # Description
//
// Success is true iff zero hard errors occurred; warnings and skips do
// not count as failure. Callers must treat a successful result with
// warnings as "mostly applied, inspect warnings," not as "fully applied."
type Result struct {
	// Success is strictly len(Errors) == 0.
	Success bool `json:"success"`

	// Operations lists every applied or skipped operation in execution
	// order.
	Operations []Operation `json:"operations"`

	// Errors holds batch-fatal error strings from the setup phase.
	Errors []string `json:"errors,omitempty"`

	// Warnings holds per-node recoverable failure strings.
	Warnings []string `json:"warnings,omitempty"`

	// SkippedNodes lists the diff entries skipped as non-structural.
	SkippedNodes []*schema.Node `json:"skipped_nodes,omitempty"`

	// SnapshotToken identifies the pre-operation snapshot for revert.
	SnapshotToken string `json:"snapshot_token,omitempty"`
}

func newResult() *Result {
	return &Result{Success: true}
}

// append records an applied operation.
func (r *Result) append(op Operation) {
	r.Operations = append(r.Operations, op)
}

// skipNonStructural records a node excluded from all mutating passes.
func (r *Result) skipNonStructural(n *schema.Node) {
	r.SkippedNodes = append(r.SkippedNodes, n)
	r.Operations = append(r.Operations, Operation{
		Type:   OpSkip,
		Node:   n,
		Reason: "Non-structural node",
	})
}

// skipWarn records a per-node recoverable failure as a skip operation
// plus a warning string.
func (r *Result) skipWarn(n *schema.Node, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, reason)
	r.Operations = append(r.Operations, Operation{
		Type:   OpSkip,
		Node:   n,
		Reason: reason,
	})
}

// skip records a skip operation without raising a warning.
func (r *Result) skip(n *schema.Node, format string, args ...any) {
	r.Operations = append(r.Operations, Operation{
		Type:   OpSkip,
		Node:   n,
		Reason: fmt.Sprintf(format, args...),
	})
}

// fatal records a batch-fatal error and flips the success flag.
func (r *Result) fatal(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Success = false
}
