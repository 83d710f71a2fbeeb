// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

func TestChain_RemoveStructuralSource(t *testing.T) {
	c := NewChain()
	ctx := context.Background()

	out, ok, err := c.Remove(ctx, ".go", []byte(goSample), "alpha", ElementFunction)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "package app\n\nfunc beta() int {\n\treturn 2\n}\n", string(out))
}

func TestChain_TextualTierForNonSource(t *testing.T) {
	c := NewChain()
	ctx := context.Background()

	// No grammar exists for this extension, so the textual tier must
	// handle the whole operation.
	content := []byte("function legacy() {\n  return 1;\n}\n\nplain text stays\n")
	out, ok, err := c.Remove(ctx, ".txt", content, "legacy", ElementFunction)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plain text stays\n", string(out))
}

func TestChain_FallbackOnMalformedSource(t *testing.T) {
	c := NewChain()
	ctx := context.Background()

	// Broken parameter list; structural analysis may fail to resolve the
	// declaration, but the removal must still land and leave unrelated
	// bytes untouched.
	content := []byte("export function broken( {\n  return 1;\n}\n\nconst keep = 1;\n")
	out, ok, err := c.Remove(ctx, ".ts", content, "broken", ElementFunction)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(out), "broken")
	assert.Contains(t, string(out), "const keep = 1;\n")

	again, ok, err := c.Remove(ctx, ".ts", content, "broken", ElementFunction)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(out), string(again), "fallback removal is deterministic")
}

func TestChain_RemoveMissingElement(t *testing.T) {
	c := NewChain()
	ctx := context.Background()

	_, ok, err := c.Remove(ctx, ".go", []byte(goSample), "gamma", ElementFunction)
	require.NoError(t, err)
	assert.False(t, ok, "neither tier should invent an element")
}

func TestChain_Exists(t *testing.T) {
	c := NewChain()
	ctx := context.Background()

	assert.True(t, c.Exists(ctx, ".go", []byte(goSample), "alpha", ElementFunction))
	assert.False(t, c.Exists(ctx, ".go", []byte(goSample), "gamma", ElementFunction))
	assert.True(t, c.Exists(ctx, ".txt", []byte("function f() {}\n"), "f", ElementFunction))
}

func TestChain_InsertPlaceholder(t *testing.T) {
	c := NewChain()
	ctx := context.Background()
	node := &schema.Node{ID: "e1", Kind: schema.KindFunction, Name: "boot"}

	t.Run("into empty content", func(t *testing.T) {
		out, err := c.InsertPlaceholder(ctx, ".ts", nil, node)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "export function boot()"))
		assert.True(t, strings.HasSuffix(string(out), "\n"))
	})

	t.Run("appends with blank line", func(t *testing.T) {
		existing := []byte("const x = 1;\n")
		out, err := c.InsertPlaceholder(ctx, ".ts", existing, node)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "const x = 1;\n\nexport function boot()"))
	})

	t.Run("inserted element is discoverable", func(t *testing.T) {
		out, err := c.InsertPlaceholder(ctx, ".ts", nil, node)
		require.NoError(t, err)
		assert.True(t, c.Exists(ctx, ".ts", out, "boot", ElementFunction))
		assert.True(t, IsPlaceholder(string(out), "boot"))
	})
}

func TestPlaceholderFor(t *testing.T) {
	tests := []struct {
		name string
		node *schema.Node
		ext  string
		want string
	}{
		{
			"go function",
			&schema.Node{Kind: schema.KindFunction, Name: "boot"},
			".go",
			"func boot() {",
		},
		{
			"tsx component",
			&schema.Node{Kind: schema.KindComponent, Name: "Header"},
			".tsx",
			"export function Header() {",
		},
		{
			"ts function",
			&schema.Node{Kind: schema.KindFunction, Name: "load"},
			".ts",
			"export function load() {",
		},
		{
			"unknown extension",
			&schema.Node{Kind: schema.KindFunction, Name: "misc"},
			".md",
			"// TODO: implement misc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlaceholderFor(tt.node, tt.ext)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("PlaceholderFor = %q, want prefix %q", got, tt.want)
			}
			if !strings.Contains(got, Sentinel) {
				t.Errorf("placeholder missing sentinel: %q", got)
			}
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	stub := PlaceholderFor(&schema.Node{Kind: schema.KindFunction, Name: "boot"}, ".ts")
	if !IsPlaceholder(stub, "boot") {
		t.Error("generated stub not recognized as placeholder")
	}
	if IsPlaceholder("export function boot() {\n  return realWork();\n}", "boot") {
		t.Error("implemented body misidentified as placeholder")
	}
}
