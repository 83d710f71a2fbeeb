// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"sort"
	"testing"

	"github.com/treeline-dev/treeline/services/sync/schema"
)

func buildTree(t *testing.T, nodes []*schema.Node) *schema.Tree {
	t.Helper()
	tree, err := schema.NewTree(nodes)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func TestRegistry_Rebuild(t *testing.T) {
	tree := buildTree(t, []*schema.Node{
		{ID: "f1", Kind: schema.KindFile, Name: "app.ts", Path: "src/app.ts", Extension: ".ts", ChildIDs: []string{"e1", "e2", "n1"}},
		{ID: "e1", Kind: schema.KindFunction, Name: "boot", ParentID: "f1"},
		{ID: "e2", Kind: schema.KindComponent, Name: "Header", ParentID: "f1"},
		{ID: "n1", Kind: schema.KindNote, Name: "todo list", ParentID: "f1"},
		{ID: "e3", Kind: schema.KindFunction, Name: "ghost", ParentID: "f1", Freeform: true},
	})

	r := New()
	r.Rebuild(tree)

	if !r.Has("src/app.ts", "boot") {
		t.Error("boot should be registered")
	}
	if !r.Has("src/app.ts", "Header") {
		t.Error("Header should be registered")
	}
	if r.Has("src/app.ts", "todo list") {
		t.Error("note content must not be registered")
	}
	if r.Has("src/app.ts", "ghost") {
		t.Error("freeform element must not be registered")
	}

	got := r.Elements("src/app.ts")
	sort.Strings(got)
	want := []string{"Header", "boot"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Elements = %v, want %v", got, want)
	}
}

func TestRegistry_AddRemove(t *testing.T) {
	r := New()
	r.Add("a.ts", "foo")
	if !r.Has("a.ts", "foo") {
		t.Fatal("Add did not register foo")
	}

	r.Remove("a.ts", "foo")
	if r.Has("a.ts", "foo") {
		t.Error("Remove did not forget foo")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0 after last element removed", r.Len())
	}

	// Removing from an unknown file is a no-op.
	r.Remove("missing.ts", "foo")
}

func TestRegistry_RenameElement(t *testing.T) {
	r := New()
	r.Add("a.ts", "oldName")
	r.RenameElement("a.ts", "oldName", "newName")

	if r.Has("a.ts", "oldName") {
		t.Error("old name still registered")
	}
	if !r.Has("a.ts", "newName") {
		t.Error("new name missing")
	}

	// Renaming an unregistered name leaves state untouched.
	r.RenameElement("a.ts", "phantom", "other")
	if r.Has("a.ts", "other") {
		t.Error("rename of unknown name must not register target")
	}
}

func TestRegistry_MoveFile(t *testing.T) {
	r := New()
	r.Add("old.ts", "foo")
	r.Add("old.ts", "bar")

	r.MoveFile("old.ts", "new.ts")
	if r.Has("old.ts", "foo") {
		t.Error("entries remain under old path")
	}
	if !r.Has("new.ts", "foo") || !r.Has("new.ts", "bar") {
		t.Error("entries missing under new path")
	}
}

func TestRegistry_Invalidate(t *testing.T) {
	r := New()
	r.Add("a.ts", "foo")
	r.Invalidate("a.ts")
	if r.Has("a.ts", "foo") {
		t.Error("invalidated entry still present")
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := New()
	r.Add("a.ts", "foo")
	r.Add("b.ts", "bar")
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len = %d after Clear", r.Len())
	}
}
