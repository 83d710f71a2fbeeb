// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package schema defines the declarative tree that is the authoritative
// description of intended file and code structure, plus the structural
// diff computed between two versions of that tree.
//
// Nodes are owned by a Tree arena and addressed by stable identifier.
// Parent/child relations are ID lookups into the arena, never pointers
// held by the nodes themselves, so the tree has no reference cycles.
package schema

import "strings"

// Kind classifies a schema node.
type Kind string

const (
	// KindDirectory is a folder on disk.
	KindDirectory Kind = "directory"

	// KindFile is a file on disk.
	KindFile Kind = "file"

	// KindFunction is a named top-level function inside a file.
	KindFunction Kind = "function"

	// KindComponent is a named top-level UI component inside a file.
	KindComponent Kind = "component"

	// KindNote is freeform prose. Never synchronized.
	KindNote Kind = "note"

	// KindReference is a link to another node or resource. Never synchronized.
	KindReference Kind = "reference"
)

// Node is a single entry in the schema tree.
//
// # Description
//
// A Node describes either a file-system object (directory, file), a code
// element owned by a file (function, component), or non-structural content
// (note, reference, freeform, comment). Code element nodes resolve to an
// owning file either through the parent chain, through a composite
// "file-path#element-name" Path, or through their own Path when it carries
// a recognized source extension.
//
// # Thread Safety
//
// Nodes are plain data. The owning Tree must not be mutated while a
// reconciliation call is reading it.
type Node struct {
	// ID is the stable identifier. Unique within a Tree.
	ID string `json:"id" validate:"required"`

	// Kind classifies the node.
	Kind Kind `json:"kind" validate:"required"`

	// Name is the display name; for code elements it is the declared
	// identifier in source.
	Name string `json:"name"`

	// Path is a workspace-relative path for directories and files, or a
	// composite "file-path#element-name" key for code elements.
	Path string `json:"path"`

	// Extension is the file extension including the leading dot, when known.
	Extension string `json:"extension,omitempty"`

	// ParentID is the owning node's ID, or empty for roots. A weak lookup
	// key into the arena, never an owning reference.
	ParentID string `json:"parent_id,omitempty"`

	// ChildIDs lists owned children in document order.
	ChildIDs []string `json:"child_ids,omitempty"`

	// Freeform marks unrecognized content with no file-system representation.
	Freeform bool `json:"freeform,omitempty"`

	// Comment marks comment content with no file-system representation.
	Comment bool `json:"comment,omitempty"`
}

// IsElement reports whether the node is a code element (function or
// component).
func (n *Node) IsElement() bool {
	return n.Kind == KindFunction || n.Kind == KindComponent
}

// IsStructural reports whether the node may reach a mutating operation.
//
// Freeform and comment nodes never have a file-system representation, and
// note/reference kinds are not synchronized.
func (n *Node) IsStructural() bool {
	if n.Freeform || n.Comment {
		return false
	}
	switch n.Kind {
	case KindDirectory, KindFile, KindFunction, KindComponent:
		return true
	default:
		return false
	}
}

// sourceExtensions are the extensions the engine treats as source code.
var sourceExtensions = map[string]bool{
	".go":  true,
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// IsSourceExtension reports whether ext (including the leading dot) is a
// recognized source-file extension.
func IsSourceExtension(ext string) bool {
	return sourceExtensions[strings.ToLower(ext)]
}

// SplitElementPath splits a composite "file-path#element-name" key.
//
// # Outputs
//
//   - string: The file path portion.
//   - string: The element name portion.
//   - bool: False if path contains no "#" separator.
func SplitElementPath(path string) (string, string, bool) {
	idx := strings.LastIndex(path, "#")
	if idx < 0 {
		return "", "", false
	}
	return path[:idx], path[idx+1:], true
}

// ElementPath builds the composite key for an element name inside a file.
func ElementPath(filePath, name string) string {
	return filePath + "#" + name
}
