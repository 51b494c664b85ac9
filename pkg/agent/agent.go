// Package agent defines the executable agent contract and the registry
// that catalogs agent descriptors and resolves workflow dependencies into
// an executable order.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadirpekel/conductor/pkg/config"
)

// Agent is the minimal executable contract. The engine drives the three
// operations in strict order: Initialize, Execute, Cleanup. Cleanup runs
// whenever Initialize was invoked, regardless of outcome.
type Agent interface {
	// Initialize performs idempotent setup scoped to the agent's own
	// resources. It receives the step's resolved input as configuration.
	Initialize(ctx context.Context, cfg map[string]any) error

	// Execute performs the unit of work. Input has already been checked
	// against the declared input contract, so implementations may assume
	// a valid shape. Implementations must observe ctx cancellation at
	// suspension points; the engine abandons non-cooperating executions
	// at the deadline.
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)

	// Cleanup releases resources acquired during Initialize
	Cleanup(ctx context.Context) error
}

// Factory produces a fresh agent instance per invocation, so retried and
// concurrent steps never share agent state.
type Factory func() Agent

// NoRetries and NoTimeout opt a descriptor out of the engine-level
// defaults. The zero values of MaxRetries and Timeout mean "unset" and
// are filled in by the engine, so a descriptor that truly wants zero
// retries or no deadline says so with the sentinel.
const (
	NoRetries               = -1
	NoTimeout time.Duration = -1
)

// Descriptor describes one registered agent type. Descriptors are
// immutable after registration: the registry stores and hands out copies.
type Descriptor struct {
	Type         string               `json:"type"`                    // Unique type name
	Description  string               `json:"description,omitempty"`   // Human-readable summary
	InputSchema  json.RawMessage      `json:"input_schema,omitempty"`  // Structural input contract
	OutputSchema json.RawMessage      `json:"output_schema,omitempty"` // Structural output contract
	Factory      Factory              `json:"-"`                       // Instance constructor
	MaxRetries   int                  `json:"max_retries"`             // Agent-layer retry ceiling
	Backoff      config.BackoffConfig `json:"backoff"`                 // Retry delay policy
	Timeout      time.Duration        `json:"timeout"`                 // Per-attempt execute deadline
}

// Validate checks the descriptor is complete enough to register
func (d *Descriptor) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("type is required")
	}
	if d.Factory == nil {
		return fmt.Errorf("factory is required")
	}
	if d.MaxRetries < NoRetries {
		return fmt.Errorf("max retries must be non-negative or NoRetries")
	}
	if d.Timeout < NoTimeout {
		return fmt.Errorf("timeout must be non-negative or NoTimeout")
	}
	return d.Backoff.Validate()
}

// BaseAgent provides no-op Initialize and Cleanup so simple agents only
// implement Execute.
type BaseAgent struct{}

func (BaseAgent) Initialize(ctx context.Context, cfg map[string]any) error { return nil }

func (BaseAgent) Cleanup(ctx context.Context) error { return nil }
