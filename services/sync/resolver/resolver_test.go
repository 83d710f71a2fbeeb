// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import "testing"

func TestFromAdjacency(t *testing.T) {
	g := FromAdjacency(map[string][]string{
		"a": {"b", "c"},
		"b": nil,
	})

	if len(g) != 2 {
		t.Fatalf("graph size = %d, want 2", len(g))
	}
	if deps := g["a"].Dependents; len(deps) != 2 {
		t.Errorf("a.Dependents = %v", deps)
	}
}

func TestDownstreamOf(t *testing.T) {
	g := FromAdjacency(map[string][]string{
		"a": {"b", "c"},
		"b": {},
	})

	t.Run("with dependents", func(t *testing.T) {
		got := DownstreamOf("a", g)
		if len(got) != 2 || got[0] != "b" || got[1] != "c" {
			t.Errorf("DownstreamOf(a) = %v, want [b c]", got)
		}
	})

	t.Run("empty entry", func(t *testing.T) {
		if got := DownstreamOf("b", g); got != nil {
			t.Errorf("DownstreamOf(b) = %v, want nil", got)
		}
	})

	t.Run("absent node", func(t *testing.T) {
		if got := DownstreamOf("zzz", g); got != nil {
			t.Errorf("DownstreamOf(zzz) = %v, want nil", got)
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		got := DownstreamOf("a", g)
		got[0] = "mutated"
		if g["a"].Dependents[0] != "b" {
			t.Error("caller mutation leaked into the graph")
		}
	})
}
