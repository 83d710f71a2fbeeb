// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treeline-dev/treeline/services/sync/engine"
	"github.com/treeline-dev/treeline/services/sync/fsops"
	"github.com/treeline-dev/treeline/services/sync/registry"
	"github.com/treeline-dev/treeline/services/sync/resolver"
	"github.com/treeline-dev/treeline/services/sync/schema"
)

var (
	flagPlanFile        string
	flagRevertOnFailure bool

	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Apply a sync plan against the workspace",
		RunE:  runApply,
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Validate a sync plan and summarize it without mutating anything",
		RunE:  runInspect,
	}

	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Interactive session: apply plans, list history, revert",
		Long: `Session keeps one engine alive so snapshot history survives across
plans. Commands on stdin:

  apply <plan.json>   apply a plan
  history             list retained snapshots
  revert <token>      restore a snapshot's captured files
  quit                exit`,
		RunE: runSession,
	}
)

func init() {
	applyCmd.Flags().StringVarP(&flagPlanFile, "file", "f", "", "Plan document (JSON)")
	applyCmd.Flags().BoolVar(&flagRevertOnFailure, "revert-on-failure", false,
		"Restore the pre-operation snapshot when the plan produced warnings or errors")
	_ = applyCmd.MarkFlagRequired("file")

	inspectCmd.Flags().StringVarP(&flagPlanFile, "file", "f", "", "Plan document (JSON)")
	_ = inspectCmd.MarkFlagRequired("file")
}

// newEngine builds an engine rooted at --root.
func newEngine() (*engine.Engine, error) {
	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	fs, err := fsops.NewOSClient(root)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{FS: fs, Logger: logger.Slog()})
}

// loadPlan reads a plan document from disk.
func loadPlan(path string) (*schema.Tree, *schema.Diff, resolver.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening plan: %w", err)
	}
	defer f.Close()

	tree, diff, adjacency, err := schema.LoadPlan(f)
	if err != nil {
		return nil, nil, nil, err
	}
	return tree, diff, resolver.FromAdjacency(adjacency), nil
}

func printResult(res *engine.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runApply(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	tree, diff, graph, err := loadPlan(flagPlanFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res := eng.Reconcile(ctx, diff, tree, graph)

	if flagRevertOnFailure && (!res.Success || len(res.Warnings) > 0) && res.SnapshotToken != "" {
		if eng.RevertToSnapshot(ctx, res.SnapshotToken) {
			logger.Info("plan reverted", "token", res.SnapshotToken)
		}
	}

	if err := printResult(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("plan failed with %d error(s)", len(res.Errors))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	tree, diff, graph, err := loadPlan(flagPlanFile)
	if err != nil {
		return err
	}

	fmt.Printf("nodes:    %d\n", tree.Len())
	fmt.Printf("added:    %d\n", len(diff.Added))
	fmt.Printf("removed:  %d\n", len(diff.Removed))
	fmt.Printf("renamed:  %d\n", len(diff.Renamed))
	fmt.Printf("modified: %d\n", len(diff.Modified))
	fmt.Printf("graph:    %d entries\n", len(graph))
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Invalidate registry entries when files change outside the engine.
	root, _ := filepath.Abs(flagRoot)
	watcher, err := registry.NewWatcher(root, eng.Registry(), nil)
	if err != nil {
		logger.Warn("staleness watcher unavailable", "error", err)
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("staleness watcher failed to start", "error", err)
	} else {
		defer watcher.Stop()
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("treeline session; commands: apply <plan.json>, history, revert <token>, quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "apply":
			if len(fields) != 2 {
				fmt.Println("usage: apply <plan.json>")
				continue
			}
			tree, diff, graph, err := loadPlan(fields[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			res := eng.Reconcile(ctx, diff, tree, graph)
			if err := printResult(res); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}

		case "history":
			for _, snap := range eng.SnapshotHistory() {
				fmt.Printf("%s  %s  %d file(s)\n",
					snap.Token, snap.TakenAt.Format("2006-01-02 15:04:05"), len(snap.Files))
			}

		case "revert":
			if len(fields) != 2 {
				fmt.Println("usage: revert <token>")
				continue
			}
			if eng.RevertToSnapshot(ctx, fields[1]) {
				fmt.Println("reverted")
			} else {
				fmt.Println("revert failed; unknown token?")
			}

		case "quit", "exit":
			return nil

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}
