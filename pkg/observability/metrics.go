package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func InitMetrics(ctx context.Context, cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("conductor")

	runDuration, err := meter.Float64Histogram(
		"conductor_run_duration_seconds",
		metric.WithDescription("Workflow run duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	runsTotal, err := meter.Int64Counter(
		"conductor_runs_total",
		metric.WithDescription("Total workflow runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	stepDuration, err := meter.Float64Histogram(
		"conductor_step_duration_seconds",
		metric.WithDescription("Step execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create step duration histogram: %w", err)
	}

	stepsTotal, err := meter.Int64Counter(
		"conductor_steps_total",
		metric.WithDescription("Total executed steps"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create steps counter: %w", err)
	}

	stepRetries, err := meter.Int64Counter(
		"conductor_step_retries_total",
		metric.WithDescription("Total step execution retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create step retries counter: %w", err)
	}

	return NewPrometheusMetrics(
		runDuration,
		runsTotal,
		stepDuration,
		stepsTotal,
		stepRetries,
	), nil
}
