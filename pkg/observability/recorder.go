package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

type Metrics interface {
	RecordRun(ctx context.Context, status string, duration time.Duration, steps int)
	RecordStep(ctx context.Context, agentType, status string, duration time.Duration, attempts int)
}

type PrometheusMetrics struct {
	runDuration      metric.Float64Histogram
	runsTotal        metric.Int64Counter
	stepDuration     metric.Float64Histogram
	stepsTotal       metric.Int64Counter
	stepRetriesTotal metric.Int64Counter
}

func NewPrometheusMetrics(
	runDuration metric.Float64Histogram,
	runsTotal metric.Int64Counter,
	stepDuration metric.Float64Histogram,
	stepsTotal metric.Int64Counter,
	stepRetriesTotal metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		runDuration:      runDuration,
		runsTotal:        runsTotal,
		stepDuration:     stepDuration,
		stepsTotal:       stepsTotal,
		stepRetriesTotal: stepRetriesTotal,
	}
}

func (m *PrometheusMetrics) RecordRun(ctx context.Context, status string, duration time.Duration, steps int) {
	if m == nil || m.runDuration == nil || m.runsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}

	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *PrometheusMetrics) RecordStep(ctx context.Context, agentType, status string, duration time.Duration, attempts int) {
	if m == nil || m.stepDuration == nil || m.stepsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("agent_type", agentType),
		attribute.String("status", status),
	}

	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.stepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if attempts > 1 && m.stepRetriesTotal != nil {
		m.stepRetriesTotal.Add(ctx, int64(attempts-1), metric.WithAttributes(
			attribute.String("agent_type", agentType),
		))
	}
}

func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics never returns a nil interface; callers may record
// unconditionally.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if globalMetrics == nil {
		return (*PrometheusMetrics)(nil)
	}
	return globalMetrics
}
