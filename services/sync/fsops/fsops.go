// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fsops is the raw file-system boundary of the reconciliation
// engine. All paths are workspace-root-relative; absolute paths and paths
// escaping the root are rejected before touching the disk.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Client abstracts the file-system primitives the engine consumes.
//
// # Description
//
// The interface exists so tests can inject failing implementations; the
// engine itself always runs against OSClient in production. Every method
// takes a context so a caller-supplied deadline is honored at the next
// suspension point, matching the engine's cooperative I/O model.
type Client interface {
	// ReadFile returns the full content of a file.
	// Returns ErrNotFound if the file does not exist.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes content to a file, creating parent directories
	// as needed.
	WriteFile(ctx context.Context, path string, content []byte) error

	// MkdirAll creates a directory and all missing parents. Creating a
	// directory that already exists is not an error.
	MkdirAll(ctx context.Context, path string) error

	// RemoveAll deletes a file or directory recursively. A missing
	// target is not an error.
	RemoveAll(ctx context.Context, path string) error

	// Rename moves oldPath to newPath. Returns ErrNotFound if oldPath
	// does not exist, ErrExists if newPath is already taken.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// OSClient implements Client against the local file system.
//
// # Thread Safety
//
// All methods are safe for concurrent use; the engine nonetheless issues
// calls sequentially within one reconciliation.
type OSClient struct {
	root string
}

// NewOSClient creates a client rooted at the given workspace directory.
//
// # Inputs
//
//   - root: Absolute path to the workspace root.
//
// # Outputs
//
//   - *OSClient: Ready-to-use client.
//   - error: Non-nil if root is not absolute.
func NewOSClient(root string) (*OSClient, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("root must be absolute: %s", root)
	}
	return &OSClient{root: filepath.Clean(root)}, nil
}

// Root returns the workspace root directory.
func (c *OSClient) Root() string {
	return c.root
}

// resolve validates a relative path and joins it under the root.
func (c *OSClient) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, path)
	}
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, path)
	}
	return filepath.Join(c.root, cleaned), nil
}

// wrap translates os-level errors into the package sentinels.
func wrap(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrExists)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

// ReadFile implements Client.
func (c *OSClient) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, wrap("read", path, err)
	}
	return data, nil
}

// WriteFile implements Client.
func (c *OSClient) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := c.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return wrap("mkdir", path, err)
	}
	return wrap("write", path, os.WriteFile(full, content, 0644))
}

// MkdirAll implements Client.
func (c *OSClient) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := c.resolve(path)
	if err != nil {
		return err
	}
	return wrap("mkdir", path, os.MkdirAll(full, 0755))
}

// RemoveAll implements Client.
func (c *OSClient) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := c.resolve(path)
	if err != nil {
		return err
	}
	return wrap("remove", path, os.RemoveAll(full))
}

// Rename implements Client.
func (c *OSClient) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := c.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := c.resolve(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(from); err != nil {
		return wrap("rename", oldPath, err)
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("rename %s: %w", newPath, ErrExists)
	}

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return wrap("mkdir", newPath, err)
	}
	return wrap("rename", oldPath, os.Rename(from, to))
}

// Exists implements Client.
func (c *OSClient) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := c.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, wrap("stat", path, err)
	}
	return true, nil
}
