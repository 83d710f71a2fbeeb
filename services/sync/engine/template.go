// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// templateFor returns the initial content for a newly created file that
// has no structural content yet.
//
// Every recognized extension currently maps to the empty template. The
// switch is the extension point for richer per-language boilerplate
// (module headers, license banners), not a meaningful contract today.
func templateFor(ext string) string {
	switch ext {
	case ".go", ".js", ".jsx", ".ts", ".tsx", ".css", ".md":
		return ""
	default:
		return ""
	}
}
