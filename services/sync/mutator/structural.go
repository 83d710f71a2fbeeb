// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutator

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Structural locates and mutates top-level declarations via tree-sitter.
//
// # Description
//
// Each call parses the content with the grammar selected by file
// extension and walks the root node's immediate children looking for a
// declaration with the requested name. Mutations are byte-range splices
// against the original content, so unrelated bytes are preserved
// exactly.
//
// # Thread Safety
//
// Safe for concurrent use; a fresh tree-sitter parser is created per
// call, matching the per-call parser pattern used for all grammars.
type Structural struct{}

// NewStructural creates the tree-sitter-backed strategy.
func NewStructural() *Structural {
	return &Structural{}
}

// languageFor selects the grammar for a file extension.
func languageFor(ext string) (*sitter.Language, bool) {
	switch strings.ToLower(ext) {
	case ".go":
		return golang.GetLanguage(), true
	case ".js", ".jsx":
		return javascript.GetLanguage(), true
	case ".ts":
		return typescript.GetLanguage(), true
	case ".tsx":
		return tsx.GetLanguage(), true
	default:
		return nil, false
	}
}

// parse builds a tree for content, or nil when the extension has no
// grammar or parsing fails outright.
func (s *Structural) parse(ctx context.Context, ext string, content []byte) (*sitter.Tree, error) {
	lang, ok := languageFor(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

// declaration finds the top-level declaration named name.
//
// The returned node spans the full declared text, including any wrapping
// export statement.
func (s *Structural) declaration(root *sitter.Node, content []byte, name string) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if declName := declaredName(child, content); declName == name {
			return child
		}
	}
	return nil
}

// declaredName extracts the name a top-level node declares, or "".
func declaredName(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "method_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return text(n, content)
		}

	case "type_declaration":
		// Go: type Name struct{ ... }
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec.Type() == "type_spec" {
				if n := spec.ChildByFieldName("name"); n != nil {
					return text(n, content)
				}
			}
		}

	case "lexical_declaration", "variable_declaration":
		// JS/TS: const Name = () => { ... }
		for i := 0; i < int(node.NamedChildCount()); i++ {
			decl := node.NamedChild(i)
			if decl.Type() == "variable_declarator" {
				if n := decl.ChildByFieldName("name"); n != nil {
					return text(n, content)
				}
			}
		}

	case "export_statement":
		// export function Name ... / export const Name = ...
		if inner := node.ChildByFieldName("declaration"); inner != nil {
			return declaredName(inner, content)
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if n := declaredName(node.NamedChild(i), content); n != "" {
				return n
			}
		}
	}
	return ""
}

// nameIdentifier returns the identifier node carrying the declared name.
func nameIdentifier(node *sitter.Node, content []byte, name string) *sitter.Node {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "method_declaration":
		if n := node.ChildByFieldName("name"); n != nil && text(n, content) == name {
			return n
		}

	case "type_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec.Type() == "type_spec" {
				if n := spec.ChildByFieldName("name"); n != nil && text(n, content) == name {
					return n
				}
			}
		}

	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			decl := node.NamedChild(i)
			if decl.Type() == "variable_declarator" {
				if n := decl.ChildByFieldName("name"); n != nil && text(n, content) == name {
					return n
				}
			}
		}

	case "export_statement":
		if inner := node.ChildByFieldName("declaration"); inner != nil {
			if n := nameIdentifier(inner, content, name); n != nil {
				return n
			}
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if n := nameIdentifier(node.NamedChild(i), content, name); n != nil {
				return n
			}
		}
	}
	return nil
}

func text(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// Exists implements Strategy.
func (s *Structural) Exists(ctx context.Context, ext string, content []byte, name string, kind ElementKind) bool {
	tree, err := s.parse(ctx, ext, content)
	if err != nil {
		return false
	}
	defer tree.Close()

	return s.declaration(tree.RootNode(), content, name) != nil
}

// Remove implements Strategy.
//
// The declaration's byte range is spliced out together with one trailing
// newline and any immediately preceding blank line, so the remaining
// content keeps its original spacing.
func (s *Structural) Remove(ctx context.Context, ext string, content []byte, name string, kind ElementKind) ([]byte, bool, error) {
	tree, err := s.parse(ctx, ext, content)
	if err != nil {
		return nil, false, nil
	}
	defer tree.Close()

	decl := s.declaration(tree.RootNode(), content, name)
	if decl == nil {
		return nil, false, nil
	}

	start, end := int(decl.StartByte()), int(decl.EndByte())

	// Swallow one trailing newline.
	if end < len(content) && content[end] == '\n' {
		end++
	}
	// Swallow a preceding blank line left behind by the removal.
	for start >= 2 && content[start-1] == '\n' && content[start-2] == '\n' {
		start--
	}

	out := make([]byte, 0, len(content)-(end-start))
	out = append(out, content[:start]...)
	out = append(out, content[end:]...)
	return out, true, nil
}

// Rename implements Strategy.
//
// Only the declaration's own name identifier is rewritten; call sites in
// the same file are left to the textual tier if the caller wants
// whole-word substitution.
func (s *Structural) Rename(ctx context.Context, ext string, content []byte, oldName, newName string) ([]byte, bool, error) {
	tree, err := s.parse(ctx, ext, content)
	if err != nil {
		return nil, false, nil
	}
	defer tree.Close()

	decl := s.declaration(tree.RootNode(), content, oldName)
	if decl == nil {
		return nil, false, nil
	}
	ident := nameIdentifier(decl, content, oldName)
	if ident == nil {
		return nil, false, nil
	}

	start, end := int(ident.StartByte()), int(ident.EndByte())
	out := make([]byte, 0, len(content)-len(oldName)+len(newName))
	out = append(out, content[:start]...)
	out = append(out, newName...)
	out = append(out, content[end:]...)
	return out, true, nil
}

// Extract implements Strategy.
func (s *Structural) Extract(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (string, error) {
	tree, err := s.parse(ctx, ext, content)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	decl := s.declaration(tree.RootNode(), content, name)
	if decl == nil {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, name)
	}
	return text(decl, content), nil
}
