// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mutator locates, inserts, renames, and removes named top-level
// code elements inside a single file's content.
//
// Two strategies are composed as an ordered fallback chain: a structural
// strategy backed by tree-sitter, and a deterministic textual strategy
// backed by name-anchored regular expressions. Structural analysis can
// fail on malformed or unusual syntax; the chain then falls back to the
// textual strategy so the batch keeps making forward progress instead of
// blocking.
package mutator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

// ElementKind classifies a code element for mutation purposes.
type ElementKind string

const (
	// ElementFunction is a named top-level function.
	ElementFunction ElementKind = "function"

	// ElementComponent is a named top-level UI component.
	ElementComponent ElementKind = "component"
)

// KindOf maps a schema node kind to an element kind.
func KindOf(kind schema.Kind) ElementKind {
	if kind == schema.KindComponent {
		return ElementComponent
	}
	return ElementFunction
}

// Strategy is one tier of the mutation chain.
//
// # Description
//
// Remove and Rename return ok == false when the operation could not be
// performed through this strategy; the chain then tries the next tier.
// Content is never modified in place; a new byte slice is returned.
type Strategy interface {
	// Exists reports whether a top-level declaration named name exists.
	Exists(ctx context.Context, ext string, content []byte, name string, kind ElementKind) bool

	// Remove deletes the named element's full declared text.
	Remove(ctx context.Context, ext string, content []byte, name string, kind ElementKind) ([]byte, bool, error)

	// Rename replaces the element's name with newName.
	Rename(ctx context.Context, ext string, content []byte, oldName, newName string) ([]byte, bool, error)

	// Extract returns the named element's full declared text.
	Extract(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (string, error)
}

// Chain composes the structural and textual strategies.
//
// # Description
//
// For structurally analyzable extensions the structural tier runs first;
// a failed structural attempt (ok == false, an error, or a panic inside
// the tree-sitter boundary) falls through to the textual tier. All other
// extensions go straight to the textual tier.
//
// # Thread Safety
//
// Safe for concurrent use; both tiers are stateless per call.
type Chain struct {
	structural *Structural
	textual    *Textual
	logger     *slog.Logger
}

// NewChain creates the default two-tier mutation chain.
func NewChain() *Chain {
	return &Chain{
		structural: NewStructural(),
		textual:    NewTextual(),
		logger:     slog.Default().With("component", "mutator.Chain"),
	}
}

// structuralFirst reports whether ext should attempt the structural tier.
func (c *Chain) structuralFirst(ext string) bool {
	return schema.IsSourceExtension(ext)
}

// Exists reports whether a top-level declaration named name exists in
// content.
func (c *Chain) Exists(ctx context.Context, ext string, content []byte, name string, kind ElementKind) bool {
	if c.structuralFirst(ext) {
		found, ok := c.safeExists(ctx, ext, content, name, kind)
		if ok {
			return found
		}
	}
	return c.textual.Exists(ctx, ext, content, name, kind)
}

// safeExists runs the structural existence check with panic isolation.
// ok is false when the structural tier could not answer.
func (c *Chain) safeExists(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (found, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("structural exists panicked", "panic", r)
			found, ok = false, false
		}
	}()
	return c.structural.Exists(ctx, ext, content, name, kind), true
}

// InsertPlaceholder appends a generated placeholder body for the node.
//
// # Description
//
// The placeholder is keyed by extension and element kind, marked with the
// sentinel so later modification passes can recognize unimplemented
// elements. Existing content is separated from the new element by a
// blank line.
func (c *Chain) InsertPlaceholder(ctx context.Context, ext string, content []byte, node *schema.Node) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stub := PlaceholderFor(node, ext)
	text := string(content)

	switch {
	case strings.TrimSpace(text) == "":
		text = stub + "\n"
	case strings.HasSuffix(text, "\n"):
		text += "\n" + stub + "\n"
	default:
		text += "\n\n" + stub + "\n"
	}
	return []byte(text), nil
}

// Remove deletes the named element's full declared text.
//
// ok is false only when both tiers failed to locate the element.
func (c *Chain) Remove(ctx context.Context, ext string, content []byte, name string, kind ElementKind) ([]byte, bool, error) {
	if c.structuralFirst(ext) {
		out, ok := c.safeRemove(ctx, ext, content, name, kind)
		if ok {
			return out, true, nil
		}
		c.logger.Debug("structural remove fell back to textual",
			"name", name, "ext", ext)
	}
	return c.textual.Remove(ctx, ext, content, name, kind)
}

func (c *Chain) safeRemove(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (out []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("structural remove panicked", "panic", r)
			out, ok = nil, false
		}
	}()
	result, ok, err := c.structural.Remove(ctx, ext, content, name, kind)
	if err != nil || !ok {
		return nil, false
	}
	return result, true
}

// Rename replaces the element's declared name with newName.
func (c *Chain) Rename(ctx context.Context, ext string, content []byte, oldName, newName string) ([]byte, bool, error) {
	if c.structuralFirst(ext) {
		out, ok := c.safeRename(ctx, ext, content, oldName, newName)
		if ok {
			return out, true, nil
		}
		c.logger.Debug("structural rename fell back to textual",
			"old", oldName, "new", newName, "ext", ext)
	}
	return c.textual.Rename(ctx, ext, content, oldName, newName)
}

func (c *Chain) safeRename(ctx context.Context, ext string, content []byte, oldName, newName string) (out []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("structural rename panicked", "panic", r)
			out, ok = nil, false
		}
	}()
	result, ok, err := c.structural.Rename(ctx, ext, content, oldName, newName)
	if err != nil || !ok {
		return nil, false
	}
	return result, true
}

// Extract returns the named element's full declared text.
func (c *Chain) Extract(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (string, error) {
	if c.structuralFirst(ext) {
		text, ok := c.safeExtract(ctx, ext, content, name, kind)
		if ok {
			return text, nil
		}
	}
	return c.textual.Extract(ctx, ext, content, name, kind)
}

func (c *Chain) safeExtract(ctx context.Context, ext string, content []byte, name string, kind ElementKind) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("structural extract panicked", "panic", r)
			text, ok = "", false
		}
	}()
	result, err := c.structural.Extract(ctx, ext, content, name, kind)
	if err != nil {
		return "", false
	}
	return result, true
}
