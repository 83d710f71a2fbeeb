// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
		{"  error  ", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if LevelWarn.String() != "warn" {
		t.Errorf("String() = %s", LevelWarn.String())
	}
	if Level(99).String() != "unknown" {
		t.Errorf("String() = %s", Level(99).String())
	}
}

func TestLogger_StderrOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Stderr: &buf})

	logger.Info("reconcile started", "nodes", 3)
	out := buf.String()
	if !strings.Contains(out, "reconcile started") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "nodes=3") {
		t.Errorf("output missing attribute: %s", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Stderr: &buf})

	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("heard")

	out := buf.String()
	if strings.Contains(out, "too quiet") {
		t.Errorf("below-threshold logs emitted: %s", out)
	}
	if !strings.Contains(out, "heard") {
		t.Errorf("warn log missing: %s", out)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Stderr: &buf})

	derived := logger.With("component", "engine")
	derived.Info("hello")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("attached attribute missing: %s", buf.String())
	}
}

func TestLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "synctest",
		Stderr:  &buf,
	})

	logger.Info("persisted line", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	name := "synctest_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "persisted line" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v", entry["key"])
	}

	// Stderr still receives the same record.
	if !strings.Contains(buf.String(), "persisted line") {
		t.Errorf("stderr output missing: %s", buf.String())
	}
}

func TestLogger_BadLogDirDegrades(t *testing.T) {
	var buf bytes.Buffer
	// A file path cannot be MkdirAll'd into a directory.
	blocked := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	logger := New(Config{LogDir: blocked, Stderr: &buf})
	logger.Info("still works")

	if !strings.Contains(buf.String(), "still works") {
		t.Errorf("stderr logging lost: %s", buf.String())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLogger_CloseIdempotent(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Stderr: &bytes.Buffer{}})
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
