// Copyright (C) 2025 Treeline Authors (maintainers@treeline.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for reconciliation metrics.
var meter = otel.Meter("treeline.engine")

// Metrics for reconciliation operations.
var (
	reconcileLatency metric.Float64Histogram
	operationsTotal  metric.Int64Counter
	revertsTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		reconcileLatency, err = meter.Float64Histogram(
			"sync_reconcile_duration_seconds",
			metric.WithDescription("Duration of reconciliation calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		operationsTotal, err = meter.Int64Counter(
			"sync_operations_total",
			metric.WithDescription("Sync operations emitted, by type"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		revertsTotal, err = meter.Int64Counter(
			"sync_reverts_total",
			metric.WithDescription("Snapshot revert attempts"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordReconcile records one reconciliation call's outcome.
func recordReconcile(ctx context.Context, d time.Duration, res *Result) {
	if initMetrics() != nil {
		return
	}

	reconcileLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.Bool("success", res.Success)))

	for _, op := range res.Operations {
		operationsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("type", string(op.Type))))
	}
}

// recordRevert records one revert attempt.
func recordRevert(ctx context.Context, ok bool) {
	if initMetrics() != nil {
		return
	}
	revertsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("success", ok)))
}
