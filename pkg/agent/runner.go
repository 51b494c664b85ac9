package agent

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kadirpekel/conductor/pkg/schema"
)

// AttemptHook observes each failed attempt before the retry delay. The
// attempt counter starts at 1.
type AttemptHook func(attempt int, err error)

// Runner drives the full lifecycle of one agent invocation: input
// validation, instance construction, Initialize, Execute under deadline,
// output validation, Cleanup, and the agent-layer retry loop. Each
// attempt gets a fresh instance from the descriptor's factory.
type Runner struct {
	desc      Descriptor
	input     *schema.Contract
	output    *schema.Contract
	onAttempt AttemptHook
}

// RunnerOption configures a runner
type RunnerOption func(*Runner)

// WithAttemptHook registers a callback invoked after each failed attempt
func WithAttemptHook(hook AttemptHook) RunnerOption {
	return func(r *Runner) {
		r.onAttempt = hook
	}
}

// NewRunner compiles the descriptor's contracts and returns a runner
// ready to execute. Descriptors coming from the registry have already
// been compile-checked, so failure here indicates a hand-built
// descriptor with a malformed schema.
func NewRunner(d Descriptor, opts ...RunnerOption) (*Runner, error) {
	input, err := schema.Compile(d.Type+".input", d.InputSchema)
	if err != nil {
		return nil, &ValidationError{AgentType: d.Type, Stage: "input", Err: err}
	}
	output, err := schema.Compile(d.Type+".output", d.OutputSchema)
	if err != nil {
		return nil, &ValidationError{AgentType: d.Type, Stage: "output", Err: err}
	}

	r := &Runner{
		desc:   d,
		input:  input,
		output: output,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunResult reports a finished invocation. Attempts counts every
// Execute attempt made, including the final one; input validation
// failures report zero attempts because no execution ever started.
type RunResult struct {
	Output   map[string]any
	Attempts int
}

// Run executes the agent against the given input, retrying retryable
// failures up to the descriptor's MaxRetries with exponential backoff.
// Only the final attempt's error surfaces; earlier failures are visible
// through the attempt hook. Cancellation of ctx aborts the loop
// immediately, including mid-delay.
func (r *Runner) Run(ctx context.Context, input map[string]any) (*RunResult, error) {
	if err := r.input.Validate(input); err != nil {
		return &RunResult{Attempts: 0}, &ValidationError{AgentType: r.desc.Type, Stage: "input", Err: err}
	}

	delay := r.newBackoff()
	retries := r.desc.MaxRetries
	if retries < 0 {
		retries = 0
	}
	maxAttempts := retries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		output, err := r.runAttempt(ctx, input)
		if err == nil {
			if verr := r.output.Validate(output); verr != nil {
				// A malformed output is the agent's own defect, not a
				// transient condition. Fail without retrying.
				return &RunResult{Attempts: attempt},
					&ValidationError{AgentType: r.desc.Type, Stage: "output", Err: verr}
			}
			return &RunResult{Output: output, Attempts: attempt}, nil
		}

		lastErr = err
		if r.onAttempt != nil {
			r.onAttempt(attempt, err)
		}

		if !Retryable(err) || attempt == maxAttempts {
			return &RunResult{Attempts: attempt}, err
		}
		if werr := r.wait(ctx, delay.NextBackOff()); werr != nil {
			return &RunResult{Attempts: attempt}, werr
		}
	}
	return &RunResult{Attempts: maxAttempts}, lastErr
}

// runAttempt performs one full lifecycle pass with a fresh instance.
// Cleanup runs whenever Initialize was invoked, even after a timeout or
// cancellation, on a context detached from the attempt's own.
func (r *Runner) runAttempt(ctx context.Context, input map[string]any) (map[string]any, error) {
	instance := r.desc.Factory()

	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		_ = instance.Cleanup(cleanupCtx)
	}()

	if err := instance.Initialize(ctx, input); err != nil {
		return nil, &InitializationError{AgentType: r.desc.Type, Err: err}
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if r.desc.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, r.desc.Timeout)
		defer cancel()
	}

	type execResult struct {
		output map[string]any
		err    error
	}
	done := make(chan execResult, 1)
	go func() {
		output, err := instance.Execute(execCtx, input)
		done <- execResult{output: output, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, r.classifyExecuteError(execCtx, res.err)
		}
		return res.output, nil
	case <-execCtx.Done():
		// The in-flight execution is abandoned; its eventual result is
		// discarded via the buffered channel.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TimeoutError{AgentType: r.desc.Type, Timeout: r.desc.Timeout}
	}
}

// classifyExecuteError normalizes what Execute returned. Cooperative
// deadline observance is reported as a timeout; errors outside the
// taxonomy are wrapped as domain failures.
func (r *Runner) classifyExecuteError(execCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{AgentType: r.desc.Type, Timeout: r.desc.Timeout}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var (
		validationErr *ValidationError
		initErr       *InitializationError
		timeoutErr    *TimeoutError
		domainErr     *DomainError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &initErr),
		errors.As(err, &timeoutErr),
		errors.As(err, &domainErr):
		return err
	default:
		return &DomainError{AgentType: r.desc.Type, Err: err}
	}
}

func (r *Runner) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.desc.Backoff.Base
	b.MaxInterval = r.desc.Backoff.Max
	b.RandomizationFactor = r.desc.Backoff.Jitter
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
