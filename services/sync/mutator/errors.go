// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutator

import "errors"

// Sentinel errors for code mutation.
//
// These errors can be checked with errors.Is() to determine the category
// of failure without inspecting error messages.
var (
	// ErrElementNotFound indicates no top-level declaration with the
	// requested name exists in the content.
	ErrElementNotFound = errors.New("element not found")

	// ErrUnsupportedExtension indicates no mutation strategy handles the
	// file extension.
	ErrUnsupportedExtension = errors.New("unsupported extension")
)
