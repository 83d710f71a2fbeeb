// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command treeline reconciles a declarative schema tree against the
// file system.
//
// Usage:
//
//	treeline apply -f plan.json --root /path/to/workspace
//	treeline inspect -f plan.json
//	treeline session --root /path/to/workspace
//
// A plan is a JSON document bundling the current schema tree, the
// structural diff to apply, and the dependency graph used for
// blast-radius reporting. The session command keeps one engine alive so
// snapshot history and revert work across multiple plans.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/treeline-dev/treeline/pkg/logging"
)

var (
	flagRoot         string
	flagLogLevel     string
	flagDebugMetrics bool

	logger        *logging.Logger
	metricsReader *sdkmetric.ManualReader

	rootCmd = &cobra.Command{
		Use:   "treeline",
		Short: "Schema-to-filesystem reconciliation",
		Long: `Treeline applies structural diffs of a declarative schema tree as
ordered file-system and source-code mutations, with per-operation
failure isolation and bounded snapshot history for rollback.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(flagLogLevel),
				Service: "treeline",
			})
			slog.SetDefault(logger.Slog())

			if flagDebugMetrics {
				metricsReader = sdkmetric.NewManualReader()
				otel.SetMeterProvider(sdkmetric.NewMeterProvider(
					sdkmetric.WithReader(metricsReader)))
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			dumpMetrics()
			_ = logger.Close()
		},
	}
)

// dumpMetrics prints collected metrics to stderr when --debug-metrics
// is set.
func dumpMetrics() {
	if metricsReader == nil {
		return
	}

	var rm metricdata.ResourceMetrics
	if err := metricsReader.Collect(context.Background(), &rm); err != nil {
		logger.Warn("collecting metrics", "error", err)
		return
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		logger.Warn("creating metrics exporter", "error", err)
		return
	}
	if err := exporter.Export(context.Background(), &rm); err != nil {
		logger.Warn("exporting metrics", "error", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "Workspace root directory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagDebugMetrics, "debug-metrics", false, "Dump collected metrics to stderr on exit")

	rootCmd.AddCommand(applyCmd, inspectCmd, sessionCmd)
}
