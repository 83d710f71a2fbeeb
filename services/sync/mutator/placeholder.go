// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutator

import (
	"fmt"
	"strings"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

// Sentinel marks generated, unimplemented element bodies. The
// modification pass recognizes an element as still-placeholder when its
// text contains the sentinel together with the element's name.
const Sentinel = "TODO: implement"

// PlaceholderFor generates the placeholder declaration for a node, keyed
// by file extension and element kind.
func PlaceholderFor(node *schema.Node, ext string) string {
	name := node.Name
	marker := fmt.Sprintf("%s %s", Sentinel, name)

	switch strings.ToLower(ext) {
	case ".go":
		return fmt.Sprintf("func %s() {\n\t// %s\n}", name, marker)
	case ".jsx", ".tsx":
		if node.Kind == schema.KindComponent {
			return fmt.Sprintf("export function %s() {\n  // %s\n  return null;\n}", name, marker)
		}
		return jsFunctionStub(name, marker)
	case ".js", ".ts":
		return jsFunctionStub(name, marker)
	default:
		return fmt.Sprintf("// %s", marker)
	}
}

func jsFunctionStub(name, marker string) string {
	return fmt.Sprintf("export function %s() {\n  // %s\n  throw new Error('Not implemented');\n}", name, marker)
}

// IsPlaceholder reports whether elementText is still the generated,
// unimplemented body for name.
func IsPlaceholder(elementText, name string) bool {
	return strings.Contains(elementText, Sentinel) &&
		strings.Contains(elementText, name)
}
