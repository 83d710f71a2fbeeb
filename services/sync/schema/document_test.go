// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

import (
	"strings"
	"testing"
)

const validPlan = `{
	"nodes": [
		{"id": "f1", "kind": "file", "name": "app.ts", "path": "app.ts", "extension": ".ts", "child_ids": ["e1"]},
		{"id": "e1", "kind": "function", "name": "boot", "parent_id": "f1"}
	],
	"diff": {
		"added": [{"id": "e1", "kind": "function", "name": "boot", "parent_id": "f1"}],
		"renamed": [{
			"before": {"id": "f1", "kind": "file", "name": "app.ts", "path": "app.ts"},
			"after": {"id": "f1", "kind": "file", "name": "main.ts", "path": "main.ts"}
		}]
	},
	"graph": {
		"e1": {"dependents": ["f1"]}
	}
}`

func TestLoadPlan(t *testing.T) {
	t.Run("valid plan", func(t *testing.T) {
		tree, diff, graph, err := LoadPlan(strings.NewReader(validPlan))
		if err != nil {
			t.Fatalf("LoadPlan: %v", err)
		}
		if tree.Len() != 2 {
			t.Errorf("tree.Len() = %d, want 2", tree.Len())
		}
		if len(diff.Added) != 1 || diff.Added[0].ID != "e1" {
			t.Errorf("diff.Added = %v", diff.Added)
		}
		if len(diff.Renamed) != 1 || diff.Renamed[0].After.Path != "main.ts" {
			t.Errorf("diff.Renamed = %v", diff.Renamed)
		}
		if deps := graph["e1"]; len(deps) != 1 || deps[0] != "f1" {
			t.Errorf("graph[e1] = %v", deps)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, _, _, err := LoadPlan(strings.NewReader("{nope")); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		doc := `{"nodes": [{"id": "a", "kind": "file"}], "surprise": true}`
		if _, _, _, err := LoadPlan(strings.NewReader(doc)); err == nil {
			t.Fatal("expected unknown-field error")
		}
	})

	t.Run("missing node ID fails validation", func(t *testing.T) {
		doc := `{"nodes": [{"kind": "file", "path": "a.ts"}]}`
		_, _, _, err := LoadPlan(strings.NewReader(doc))
		if err == nil || !strings.Contains(err.Error(), "validating plan") {
			t.Fatalf("err = %v, want validation failure", err)
		}
	})

	t.Run("duplicate node IDs rejected", func(t *testing.T) {
		doc := `{"nodes": [{"id": "a", "kind": "file"}, {"id": "a", "kind": "file"}]}`
		if _, _, _, err := LoadPlan(strings.NewReader(doc)); err == nil {
			t.Fatal("expected duplicate-ID error")
		}
	})
}
