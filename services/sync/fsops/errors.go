// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fsops

import "errors"

// Sentinel errors for file-system operations.
//
// The engine special-cases "not found" and "already exists" (for example,
// idempotent directory creation), so these must stay distinguishable from
// other I/O errors via errors.Is().
var (
	// ErrNotFound indicates the target file or directory does not exist.
	ErrNotFound = errors.New("file or directory not found")

	// ErrExists indicates the target already exists.
	ErrExists = errors.New("file or directory already exists")

	// ErrPathOutsideRoot indicates a path is absolute or escapes the
	// workspace root via "..".
	ErrPathOutsideRoot = errors.New("path escapes workspace root")
)
