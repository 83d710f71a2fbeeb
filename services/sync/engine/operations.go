// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/treeline-dev/treeline/services/sync/schema"

// OpType tags the variant of a sync operation.
type OpType string

const (
	// OpCreateFile is the creation of a file on disk.
	OpCreateFile OpType = "create-file"

	// OpCreateFolder is the creation of a directory on disk.
	OpCreateFolder OpType = "create-folder"

	// OpCreatePlaceholder is the emission of a generated, unimplemented
	// code element body into a file.
	OpCreatePlaceholder OpType = "create-placeholder"

	// OpDelete is the removal of a file, directory, or code element.
	OpDelete OpType = "delete"

	// OpRename is a rename that keeps the subject in its containing
	// file or directory.
	OpRename OpType = "rename"

	// OpMove relocates a code element between files.
	OpMove OpType = "move"

	// OpSkip records a diff entry that was not applied, with the reason.
	OpSkip OpType = "skip"
)

// Operation is the atomic unit of the reconciliation report.
//
// # Description
//
// One Operation is created per processed diff entry and never mutated
// after it is appended to the result. A skip operation's Reason explains
// why the entry was not applied; for applied operations Reason is empty.
type Operation struct {
	// Type tags the variant.
	Type OpType `json:"type"`

	// Node is the subject schema node.
	Node *schema.Node `json:"node"`

	// OldPath is the pre-operation path, when the operation moved or
	// renamed something.
	OldPath string `json:"old_path,omitempty"`

	// NewPath is the post-operation path.
	NewPath string `json:"new_path,omitempty"`

	// AffectedNodeIDs lists downstream nodes that reference the subject,
	// reported for blast-radius visibility on deletions.
	AffectedNodeIDs []string `json:"affected_node_ids,omitempty"`

	// Reason is the human-readable error or skip reason.
	Reason string `json:"reason,omitempty"`
}
