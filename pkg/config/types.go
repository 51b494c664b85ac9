package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/conductor/pkg/observability"
)

// ============================================================================
// WORKFLOW DEFINITION
// ============================================================================

// ErrorPolicy controls how a step failure affects the rest of the run
type ErrorPolicy string

const (
	ErrorPolicyStop     ErrorPolicy = "stop"
	ErrorPolicyContinue ErrorPolicy = "continue"
	ErrorPolicyRetry    ErrorPolicy = "retry"
)

// InputSource is the reserved source name addressing the run's initial
// input in a step's `inputs` mapping.
const InputSource = "input"

// WorkflowDefinition is a declarative DAG of steps, each invoking one
// registered agent type
type WorkflowDefinition struct {
	Name        string         `yaml:"name" json:"name"`                                   // Workflow name
	Description string         `yaml:"description,omitempty" json:"description,omitempty"` // Workflow description
	Steps       []WorkflowStep `yaml:"steps" json:"steps"`                                 // Workflow steps
}

// Validate implements ConfigInterface.Validate for WorkflowDefinition.
// It checks well-formedness only: unique step ids, declared dependency
// targets, conditions referencing dependencies. Cycle detection and agent
// type resolution happen at admission time against a registry.
func (c *WorkflowDefinition) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	seen := make(map[string]bool, len(c.Steps))
	for i, step := range c.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d (%s) validation failed: %w", i, step.ID, err)
		}
		if seen[step.ID] {
			return fmt.Errorf("step id %q is declared more than once", step.ID)
		}
		seen[step.ID] = true
	}

	for _, step := range c.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.ID {
				return fmt.Errorf("step %q depends on itself", step.ID)
			}
			if !seen[dep] {
				return fmt.Errorf("step %q depends on undeclared step %q", step.ID, dep)
			}
		}
		if step.Condition != nil {
			if !step.dependsOn(step.Condition.Step) {
				return fmt.Errorf("step %q condition references %q which is not among its dependencies",
					step.ID, step.Condition.Step)
			}
		}
		for field, ref := range step.Inputs {
			source, _, _ := strings.Cut(ref, ".")
			if source == InputSource {
				continue
			}
			if !step.dependsOn(source) {
				return fmt.Errorf("step %q input %q references %q which is not among its dependencies",
					step.ID, field, source)
			}
		}
	}

	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for WorkflowDefinition
func (c *WorkflowDefinition) SetDefaults() {
	for i := range c.Steps {
		c.Steps[i].SetDefaults()
	}
}

// Clone returns a copy whose step slice is independent of the
// receiver's, so normalization never writes through to the caller's
// definition. Parameter and input maps are shared; nothing in the engine
// mutates them.
func (c *WorkflowDefinition) Clone() *WorkflowDefinition {
	clone := *c
	clone.Steps = make([]WorkflowStep, len(c.Steps))
	copy(clone.Steps, c.Steps)
	return &clone
}

// Step returns the step with the given id, if declared
func (c *WorkflowDefinition) Step(id string) (*WorkflowStep, bool) {
	for i := range c.Steps {
		if c.Steps[i].ID == id {
			return &c.Steps[i], true
		}
	}
	return nil, false
}

// WorkflowStep is one unit of the workflow DAG
type WorkflowStep struct {
	ID               string            `yaml:"id" json:"id"`                                                   // Unique step id
	Agent            string            `yaml:"agent" json:"agent"`                                             // Agent type reference
	DependsOn        []string          `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`               // Dependencies
	Condition        *Condition        `yaml:"condition,omitempty" json:"condition,omitempty"`                 // Optional gating predicate
	ErrorPolicy      ErrorPolicy       `yaml:"error_policy,omitempty" json:"error_policy,omitempty"`           // stop | continue | retry
	Parameters       map[string]any    `yaml:"parameters,omitempty" json:"parameters,omitempty"`               // Static parameters
	Inputs           map[string]string `yaml:"inputs,omitempty" json:"inputs,omitempty"`                       // field <- "stepId[.path]" output mapping
	Retries          int               `yaml:"retries,omitempty" json:"retries,omitempty"`                     // Step re-queues under the retry policy
	OnRetryExhausted ErrorPolicy       `yaml:"on_retry_exhausted,omitempty" json:"on_retry_exhausted,omitempty"` // Fallback once retries are spent
	Timeout          time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`                     // Overrides the descriptor timeout
}

// Validate implements ConfigInterface.Validate for WorkflowStep
func (c *WorkflowStep) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Agent == "" {
		return fmt.Errorf("agent reference is required")
	}
	switch c.ErrorPolicy {
	case "", ErrorPolicyStop, ErrorPolicyContinue, ErrorPolicyRetry:
	default:
		return fmt.Errorf("unknown error policy %q", c.ErrorPolicy)
	}
	switch c.OnRetryExhausted {
	case "", ErrorPolicyStop, ErrorPolicyContinue:
	default:
		return fmt.Errorf("on_retry_exhausted must be stop or continue, got %q", c.OnRetryExhausted)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Condition != nil {
		if err := c.Condition.Validate(); err != nil {
			return fmt.Errorf("condition validation failed: %w", err)
		}
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for WorkflowStep
func (c *WorkflowStep) SetDefaults() {
	if c.ErrorPolicy == "" {
		c.ErrorPolicy = ErrorPolicyStop
	}
	if c.OnRetryExhausted == "" {
		c.OnRetryExhausted = ErrorPolicyStop
	}
	if c.ErrorPolicy == ErrorPolicyRetry && c.Retries == 0 {
		c.Retries = 1
	}
}

func (c *WorkflowStep) dependsOn(id string) bool {
	for _, dep := range c.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// Condition gates a step on the output of one of its dependencies. The
// step is skipped, never failed, when the predicate evaluates to false.
type Condition struct {
	Step      string `yaml:"step" json:"step"`                               // Dependency whose output is inspected
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`           // Dotted path into that output
	Equals    any    `yaml:"equals,omitempty" json:"equals,omitempty"`       // Value equality clause
	NotEquals any    `yaml:"not_equals,omitempty" json:"not_equals,omitempty"` // Value inequality clause
	Exists    *bool  `yaml:"exists,omitempty" json:"exists,omitempty"`       // Presence clause
}

// Validate implements ConfigInterface.Validate for Condition
func (c *Condition) Validate() error {
	if c.Step == "" {
		return fmt.Errorf("step is required")
	}
	if c.Equals == nil && c.NotEquals == nil && c.Exists == nil {
		return fmt.Errorf("at least one of equals, not_equals or exists is required")
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for Condition
func (c *Condition) SetDefaults() {
	// No defaults to set
}

// ============================================================================
// ENGINE CONFIGURATION
// ============================================================================

// BackoffConfig governs delay growth between retry attempts:
// delay = base * 2^attempt, randomized by +/- jitter, capped at max.
type BackoffConfig struct {
	Base   time.Duration `yaml:"base" json:"base"`     // Initial delay
	Max    time.Duration `yaml:"max" json:"max"`       // Delay cap
	Jitter float64       `yaml:"jitter" json:"jitter"` // Randomization factor in [0, 1]
}

// Validate implements ConfigInterface.Validate for BackoffConfig
func (c *BackoffConfig) Validate() error {
	if c.Base < 0 {
		return fmt.Errorf("base must be non-negative")
	}
	if c.Max < 0 {
		return fmt.Errorf("max must be non-negative")
	}
	if c.Max > 0 && c.Base > c.Max {
		return fmt.Errorf("base must not exceed max")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("jitter must be between 0 and 1")
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for BackoffConfig
func (c *BackoffConfig) SetDefaults() {
	if c.Base == 0 {
		c.Base = 200 * time.Millisecond
	}
	if c.Max == 0 {
		c.Max = 10 * time.Second
	}
	if c.Jitter == 0 {
		c.Jitter = 0.25
	}
}

// EngineConfig represents workflow engine configuration
type EngineConfig struct {
	MaxConcurrentSteps int           `yaml:"max_concurrent_steps" json:"max_concurrent_steps"` // Frontier concurrency limit
	DefaultTimeout     time.Duration `yaml:"default_timeout" json:"default_timeout"`           // Per-attempt execute deadline
	DefaultMaxRetries  int           `yaml:"default_max_retries" json:"default_max_retries"`   // Agent-layer retry ceiling
	DefaultBackoff     BackoffConfig `yaml:"default_backoff" json:"default_backoff"`           // Agent-layer backoff policy
}

// Validate implements ConfigInterface.Validate for EngineConfig
func (c *EngineConfig) Validate() error {
	if c.MaxConcurrentSteps < 0 {
		return fmt.Errorf("max_concurrent_steps must be non-negative")
	}
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must be non-negative")
	}
	if c.DefaultMaxRetries < 0 {
		return fmt.Errorf("default_max_retries must be non-negative")
	}
	if err := c.DefaultBackoff.Validate(); err != nil {
		return fmt.Errorf("default backoff validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for EngineConfig
func (c *EngineConfig) SetDefaults() {
	if c.MaxConcurrentSteps == 0 {
		c.MaxConcurrentSteps = 4
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = 2 * time.Minute
	}
	if c.DefaultMaxRetries == 0 {
		c.DefaultMaxRetries = 3
	}
	c.DefaultBackoff.SetDefaults()
}

// ============================================================================
// GLOBAL CONFIGURATION
// ============================================================================

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" json:"host"` // Bind host
	Port int    `yaml:"port" json:"port"` // Bind port
}

// Validate implements ConfigInterface.Validate for ServerConfig
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for ServerConfig
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8420
	}
}

// Config is the root configuration for the conductor runtime
type Config struct {
	Engine        EngineConfig         `yaml:"engine" json:"engine"`
	Server        ServerConfig         `yaml:"server" json:"server"`
	Observability observability.Config `yaml:"observability" json:"observability"`
}

// Validate implements ConfigInterface.Validate for Config
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine configuration validation failed: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration validation failed: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability configuration validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements ConfigInterface.SetDefaults for Config
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Server.SetDefaults()
	c.Observability.SetDefaults()
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}
