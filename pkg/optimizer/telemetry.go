package optimizer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/l3aro/go-gflow/pkg/jast"
)

// Package-level tracer and meter for optimizer passes.
var (
	tracer = otel.Tracer("gflow.optimizer")
	meter  = otel.Meter("gflow.optimizer")
)

var (
	passLatency   metric.Float64Histogram
	passTotal     metric.Int64Counter
	methodChanges metric.Int64Counter
	iterations    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		passLatency, err = meter.Float64Histogram(
			"gflow_pass_duration_seconds",
			metric.WithDescription("Duration of one optimizer pass over a method"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passTotal, err = meter.Int64Counter(
			"gflow_pass_total",
			metric.WithDescription("Total number of optimizer passes over methods"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		methodChanges, err = meter.Int64Counter(
			"gflow_method_changes_total",
			metric.WithDescription("Number of passes that changed a method"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		iterations, err = meter.Int64Histogram(
			"gflow_driver_iterations",
			metric.WithDescription("Rounds the driver needed to reach a fixpoint"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordPass records metrics for one pass over one method.
func recordPass(ctx context.Context, pass string, duration time.Duration, changed bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("pass", pass),
		attribute.Bool("changed", changed),
	)
	passLatency.Record(ctx, duration.Seconds(), attrs)
	passTotal.Add(ctx, 1, attrs)
	if changed {
		methodChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("pass", pass)))
	}
}

// recordRun records the outcome of a Driver.Run.
func recordRun(ctx context.Context, rounds int, converged bool) {
	if err := initMetrics(); err != nil {
		return
	}
	iterations.Record(ctx, int64(rounds), metric.WithAttributes(attribute.Bool("converged", converged)))
}

// startMethodSpan creates a span for a pass over one method.
func startMethodSpan(ctx context.Context, name string, m *jast.Method) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("method.name", m.Name),
			attribute.String("method.class", m.Class),
			attribute.Int("method.params", len(m.Params)),
		),
	)
}
