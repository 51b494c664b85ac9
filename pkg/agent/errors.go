package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds surfaced in step results and events. Admission-time kinds
// (duplicate type, unknown agent, circular dependency) are fatal to the
// whole run and never retried.
const (
	KindValidation         = "validation"
	KindInitialization     = "initialization"
	KindTimeout            = "timeout"
	KindDomain             = "domain"
	KindDuplicateType      = "duplicate_type"
	KindUnknownAgent       = "unknown_agent"
	KindCircularDependency = "circular_dependency"
	KindCanceled           = "canceled"
)

// ValidationError reports an input or output contract mismatch. It is
// never retried: the fault lies with the caller (input) or the agent
// itself (output).
type ValidationError struct {
	AgentType string
	Stage     string // "input" or "output"
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("agent %s: %s validation failed: %v", e.AgentType, e.Stage, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InitializationError reports a failed Initialize call
type InitializationError struct {
	AgentType string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("agent %s: initialization failed: %v", e.AgentType, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// TimeoutError reports an Execute call that exceeded its deadline. The
// in-flight execution is abandoned and its eventual result discarded.
type TimeoutError struct {
	AgentType string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent %s: execution exceeded %v deadline", e.AgentType, e.Timeout)
}

// DomainError wraps an agent-specific business failure, surfaced verbatim
type DomainError struct {
	AgentType string
	Err       error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.AgentType, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// DuplicateTypeError reports a registration under an already-taken type
type DuplicateTypeError struct {
	Type string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("agent type %q is already registered", e.Type)
}

// UnknownAgentError reports a reference to an unregistered agent type
type UnknownAgentError struct {
	Type string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("agent type %q is not registered", e.Type)
}

// CircularDependencyError names the cycle that makes a workflow
// definition unexecutable.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Classify maps an error to its taxonomy kind for step results and events
func Classify(err error) string {
	var (
		validationErr *ValidationError
		initErr       *InitializationError
		timeoutErr    *TimeoutError
		duplicateErr  *DuplicateTypeError
		unknownErr    *UnknownAgentError
		circularErr   *CircularDependencyError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &initErr):
		return KindInitialization
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &duplicateErr):
		return KindDuplicateType
	case errors.As(err, &unknownErr):
		return KindUnknownAgent
	case errors.As(err, &circularErr):
		return KindCircularDependency
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindDomain
	}
}

// Retryable reports whether the agent-layer retry loop may re-attempt
// after this error. Contract violations are never retried; initialization
// failures surface to the workflow layer where the step's own policy
// decides.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDomain:
		return true
	default:
		return false
	}
}
