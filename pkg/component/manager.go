// Package component wires configuration into the runtime components:
// observability, the agent registry with its builtins, and the workflow
// engine.
package component

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/agents"
	"github.com/kadirpekel/conductor/pkg/config"
	"github.com/kadirpekel/conductor/pkg/observability"
	"github.com/kadirpekel/conductor/pkg/workflow"
)

// Manager owns the component graph built from one configuration
type Manager struct {
	cfg            *config.Config
	registry       *agent.Registry
	engine         *workflow.Engine
	metrics        *observability.PrometheusMetrics
	tracerProvider trace.TracerProvider
	logger         *slog.Logger
}

// ManagerOption configures a manager
type ManagerOption func(*Manager)

// WithLogger overrides the default logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithoutBuiltins skips builtin agent registration, for embedders that
// bring their own agent catalog.
func WithoutBuiltins() ManagerOption {
	return func(m *Manager) {
		m.registry = agent.NewRegistry()
	}
}

// NewManager validates the configuration and builds the component graph.
// Components are wired bottom-up: observability first, then the registry
// with the builtin agents, then the engine.
func NewManager(ctx context.Context, cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	m := &Manager{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	metrics, err := observability.InitMetrics(ctx, cfg.Observability.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics initialization failed: %w", err)
	}
	m.metrics = metrics
	observability.SetGlobalMetrics(metrics)

	tracerProvider, err := observability.InitGlobalTracer(ctx, cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracer initialization failed: %w", err)
	}
	m.tracerProvider = tracerProvider

	if m.registry == nil {
		m.registry = agent.NewRegistry()
		if err := agents.Register(m.registry); err != nil {
			return nil, fmt.Errorf("builtin agent registration failed: %w", err)
		}
	}

	m.engine = workflow.NewEngine(cfg.Engine, m.registry,
		workflow.WithLogger(m.logger),
		workflow.WithMetrics(m.metrics),
		workflow.WithTracer(observability.GetTracer("conductor.workflow")),
	)

	m.logger.Debug("component manager initialized",
		"agent_types", m.registry.Count(),
		"metrics_enabled", cfg.Observability.Metrics.Enabled,
		"tracing_enabled", cfg.Observability.Tracing.Enabled)

	return m, nil
}

// Config returns the effective configuration
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Registry returns the agent registry
func (m *Manager) Registry() *agent.Registry {
	return m.registry
}

// Engine returns the workflow engine
func (m *Manager) Engine() *workflow.Engine {
	return m.engine
}

// RunWorkflow executes a workflow definition through the engine
func (m *Manager) RunWorkflow(ctx context.Context, def *config.WorkflowDefinition, input map[string]any, sinks ...workflow.Sink) (*workflow.ExecutionResult, error) {
	return m.engine.Run(ctx, def, input, sinks...)
}

// Shutdown flushes observability pipelines
func (m *Manager) Shutdown(ctx context.Context) error {
	if tp, ok := m.tracerProvider.(interface{ Shutdown(context.Context) error }); ok {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("tracer shutdown failed: %w", err)
		}
	}
	return nil
}
