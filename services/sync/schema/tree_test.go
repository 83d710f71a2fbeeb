// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schema

import (
	"errors"
	"testing"
)

func sampleNodes() []*Node {
	return []*Node{
		{ID: "dir", Kind: KindDirectory, Name: "src", Path: "src", ChildIDs: []string{"file"}},
		{ID: "file", Kind: KindFile, Name: "app.ts", Path: "src/app.ts", Extension: ".ts", ParentID: "dir", ChildIDs: []string{"fn", "note"}},
		{ID: "fn", Kind: KindFunction, Name: "boot", ParentID: "file"},
		{ID: "note", Kind: KindNote, Name: "remember", ParentID: "file"},
	}
}

func TestNewTree(t *testing.T) {
	t.Run("builds arena with roots", func(t *testing.T) {
		tree, err := NewTree(sampleNodes())
		if err != nil {
			t.Fatalf("NewTree: %v", err)
		}
		if tree.Len() != 4 {
			t.Errorf("Len() = %d, want 4", tree.Len())
		}
		roots := tree.Roots()
		if len(roots) != 1 || roots[0].ID != "dir" {
			t.Errorf("Roots() = %v, want [dir]", roots)
		}
	})

	t.Run("unknown parent becomes root", func(t *testing.T) {
		tree, err := NewTree([]*Node{
			{ID: "orphan", Kind: KindFile, Path: "x.ts", ParentID: "missing"},
		})
		if err != nil {
			t.Fatalf("NewTree: %v", err)
		}
		if len(tree.Roots()) != 1 {
			t.Errorf("orphan should be a root")
		}
	})

	t.Run("duplicate IDs rejected", func(t *testing.T) {
		_, err := NewTree([]*Node{
			{ID: "a", Kind: KindFile},
			{ID: "a", Kind: KindFile},
		})
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("err = %v, want ErrDuplicateID", err)
		}
	})
}

func TestTree_Walk(t *testing.T) {
	tree, err := NewTree(sampleNodes())
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	var order []string
	tree.Walk(func(n *Node) bool {
		order = append(order, n.ID)
		return true
	})

	want := []string{"dir", "file", "fn", "note"}
	if len(order) != len(want) {
		t.Fatalf("visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestTree_OwningFilePath(t *testing.T) {
	tree, err := NewTree(sampleNodes())
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	t.Run("via parent chain", func(t *testing.T) {
		fn, _ := tree.Node("fn")
		path, err := tree.OwningFilePath(fn)
		if err != nil {
			t.Fatalf("OwningFilePath: %v", err)
		}
		if path != "src/app.ts" {
			t.Errorf("path = %s, want src/app.ts", path)
		}
	})

	t.Run("via composite path", func(t *testing.T) {
		detached := &Node{ID: "d", Kind: KindFunction, Name: "run", Path: "lib/util.ts#run"}
		path, err := tree.OwningFilePath(detached)
		if err != nil {
			t.Fatalf("OwningFilePath: %v", err)
		}
		if path != "lib/util.ts" {
			t.Errorf("path = %s, want lib/util.ts", path)
		}
	})

	t.Run("via own source path", func(t *testing.T) {
		detached := &Node{ID: "d2", Kind: KindFunction, Name: "run", Path: "lib/util.go"}
		path, err := tree.OwningFilePath(detached)
		if err != nil {
			t.Fatalf("OwningFilePath: %v", err)
		}
		if path != "lib/util.go" {
			t.Errorf("path = %s, want lib/util.go", path)
		}
	})

	t.Run("unresolvable", func(t *testing.T) {
		detached := &Node{ID: "d3", Kind: KindFunction, Name: "run", Path: "README.md"}
		if _, err := tree.OwningFilePath(detached); !errors.Is(err, ErrNoOwningFile) {
			t.Errorf("err = %v, want ErrNoOwningFile", err)
		}
	})
}

func TestTree_Clone(t *testing.T) {
	tree, err := NewTree(sampleNodes())
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	clone := tree.Clone()
	orig, _ := tree.Node("fn")
	orig.Name = "changed"

	copied, _ := clone.Node("fn")
	if copied.Name != "boot" {
		t.Errorf("clone mutated along with original: %s", copied.Name)
	}
}

func TestNode_IsStructural(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"file", Node{Kind: KindFile}, true},
		{"function", Node{Kind: KindFunction}, true},
		{"note", Node{Kind: KindNote}, false},
		{"reference", Node{Kind: KindReference}, false},
		{"freeform file", Node{Kind: KindFile, Freeform: true}, false},
		{"comment component", Node{Kind: KindComponent, Comment: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsStructural(); got != tt.want {
				t.Errorf("IsStructural() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitElementPath(t *testing.T) {
	file, name, ok := SplitElementPath("src/app.ts#boot")
	if !ok || file != "src/app.ts" || name != "boot" {
		t.Errorf("got (%s, %s, %v)", file, name, ok)
	}
	if _, _, ok := SplitElementPath("src/app.ts"); ok {
		t.Error("expected ok=false without separator")
	}
}
