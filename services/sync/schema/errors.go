// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

import "errors"

// Sentinel errors for schema construction and path resolution.
//
// These errors can be checked with errors.Is() to determine the category
// of failure without inspecting error messages.
var (
	// ErrDuplicateID indicates two nodes in one tree share an ID.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrNodeNotFound indicates a lookup by ID found no node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOwningFile indicates a code element node could not be resolved
	// to an ancestor file node, a composite path, or a source-file path of
	// its own.
	ErrNoOwningFile = errors.New("no owning file for element")
)
