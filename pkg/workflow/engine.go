package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/config"
	"github.com/kadirpekel/conductor/pkg/observability"
)

// ============================================================================
// ENGINE
// ============================================================================

// Engine executes workflow definitions. It is stateless across runs and
// safe for concurrent use; all per-run state lives inside Run.
type Engine struct {
	cfg      config.EngineConfig
	registry *agent.Registry
	logger   *slog.Logger
	metrics  observability.Metrics
	tracer   trace.Tracer
}

// Option configures an engine
type Option func(*Engine)

// WithLogger overrides the default logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics overrides the global metrics recorder
func WithMetrics(m observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer overrides the default tracer
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// NewEngine creates an engine executing against the given registry
func NewEngine(cfg config.EngineConfig, registry *agent.Registry, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		logger:   slog.Default(),
		metrics:  observability.GetGlobalMetrics(),
		tracer:   observability.GetTracer("conductor.workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ============================================================================
// RUN STATE
// ============================================================================

// stepOutcome travels from a step goroutine back to the scheduler
type stepOutcome struct {
	stepID     string
	output     map[string]any
	err        error
	attempts   int
	startedAt  time.Time
	finishedAt time.Time
}

// runState is the scheduler's single-goroutine view of one run. The
// embedded execution context is mutated only from the scheduler loop;
// frontier recomputation is thereby serialized against completions.
type runState struct {
	def      *config.WorkflowDefinition
	plan     *agent.ExecutionPlan
	ectx     *ExecutionContext
	requeues map[string]int
	sinks    []Sink

	running  int
	stopping bool
	canceled bool
}

// ============================================================================
// EXECUTION
// ============================================================================

// Run executes a workflow definition to completion. Admission failures
// (invalid definition, unknown agent type, circular dependency) return an
// error before any step starts. Once admitted, the run always produces a
// result in which every step is terminal; step failures are reported
// through the result and its events, not the error return.
//
// Cancelling ctx stops scheduling, lets in-flight steps wind down and
// marks the run failed.
func (e *Engine) Run(ctx context.Context, def *config.WorkflowDefinition, input map[string]any, sinks ...Sink) (*ExecutionResult, error) {
	// Normalize a copy; the caller's definition is never written to.
	def = def.Clone()
	def.SetDefaults()

	plan, err := e.registry.BuildExecutionOrder(def)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("workflow.name", def.Name),
		attribute.String("workflow.run_id", runID),
	))
	defer span.End()

	ectx := newExecutionContext(runID, def.Name, input, len(def.Steps))
	for _, step := range def.Steps {
		ectx.Steps[step.ID] = &StepResult{
			StepID: step.ID,
			Agent:  step.Agent,
			Status: StepPending,
		}
	}

	state := &runState{
		def:      def,
		plan:     plan,
		ectx:     ectx,
		requeues: make(map[string]int),
		sinks:    sinks,
	}

	e.logger.Info("workflow run started",
		"workflow", def.Name,
		"run_id", runID,
		"steps", len(def.Steps))

	e.schedule(ctx, state)

	result := ectx.Result(state.finalStatus())

	state.emit(Event{
		Kind:      EventRunCompleted,
		RunID:     runID,
		Workflow:  def.Name,
		Status:    result.Status,
		Timestamp: result.FinishedAt,
	})
	e.metrics.RecordRun(ctx, string(result.Status), result.Duration(), len(def.Steps))
	span.SetAttributes(attribute.String("workflow.status", string(result.Status)))

	e.logger.Info("workflow run finished",
		"workflow", def.Name,
		"run_id", runID,
		"status", result.Status,
		"duration", result.Duration())

	return result, nil
}

// schedule is the single scheduler loop: it launches every ready step,
// waits for one completion, folds it into the run state and repeats until
// no step can make progress. Frontier recomputation is serialized here,
// so no other goroutine touches the run state.
func (e *Engine) schedule(ctx context.Context, state *runState) {
	maxConcurrent := state.concurrencyLimit(e.cfg.MaxConcurrentSteps)
	sem := semaphore.NewWeighted(int64(maxConcurrent))

	// Buffered to the step count so step goroutines never block sending,
	// even while the scheduler is parked in Acquire.
	completions := make(chan stepOutcome, len(state.def.Steps))

	for {
		if ctx.Err() != nil && !state.canceled {
			state.canceled = true
			state.stopping = true
		}
		if !state.stopping {
			e.launchReady(ctx, state, sem, completions)
		}
		if state.running == 0 {
			if state.stopping || !state.hasPending() {
				break
			}
			// Pending steps remain but none became ready: their
			// dependencies resolved without success. launchReady skips
			// them, so reaching here means the frontier is empty.
			break
		}
		outcome := <-completions
		state.running--
		e.fold(ctx, state, outcome)

		// Fold everything else that already finished before recomputing
		// the frontier, so stop and cancel decisions are never made on
		// stale state.
		for drained := false; !drained && state.running > 0; {
			select {
			case outcome := <-completions:
				state.running--
				e.fold(ctx, state, outcome)
			default:
				drained = true
			}
		}
	}

	state.skipRemaining()
}

// launchReady walks the declaration order and launches, skips or fails
// every pending step whose dependencies are all terminal. Skips cascade
// within a single call, so a freshly skipped step immediately releases
// its dependents' decisions too.
func (e *Engine) launchReady(ctx context.Context, state *runState, sem *semaphore.Weighted, completions chan<- stepOutcome) {
	for progress := true; progress && !state.stopping; {
		progress = false
		for _, id := range state.plan.Order {
			sr := state.ectx.Steps[id]
			if sr.Status != StepPending {
				continue
			}

			decision, blockedOn := state.dependencyDecision(id)
			switch decision {
			case depWait:
				continue
			case depBlocked:
				state.skipStep(id, "dependency "+blockedOn+" did not succeed")
				progress = true
				continue
			}

			step, _ := state.def.Step(id)
			if !evaluateCondition(step.Condition, state.ectx.Outputs) {
				state.skipStep(id, "condition not met")
				progress = true
				continue
			}

			input, err := resolveInput(step, state.ectx.Input, state.ectx.Outputs)
			if err != nil {
				e.failStep(ctx, state, stepOutcome{stepID: id, err: &agent.ValidationError{
					AgentType: step.Agent,
					Stage:     "input",
					Err:       err,
				}})
				progress = true
				continue
			}

			if !sem.TryAcquire(1) {
				// No slot free. Return to the scheduler loop so queued
				// completions are folded before anything else launches;
				// a stop-policy failure that already finished must not
				// be outrun by the next ready step.
				return
			}
			e.launchStep(ctx, state, step, input, sem, completions)
			progress = true
		}
	}
}

// launchStep marks a step running and executes it in its own goroutine
func (e *Engine) launchStep(ctx context.Context, state *runState, step *config.WorkflowStep, input map[string]any, sem *semaphore.Weighted, completions chan<- stepOutcome) {
	sr := state.ectx.Steps[step.ID]
	sr.Status = StepRunning
	state.running++

	started := time.Now()
	state.emit(Event{
		Kind:      EventStepStarted,
		RunID:     state.ectx.RunID,
		Workflow:  state.def.Name,
		StepID:    step.ID,
		Agent:     step.Agent,
		Timestamp: started,
	})

	desc := e.effectiveDescriptor(state.plan.Descriptor(step.ID), step)
	emit := state.emitter()

	go func() {
		defer sem.Release(1)

		stepCtx, span := e.tracer.Start(ctx, "workflow.step", trace.WithAttributes(
			attribute.String("step.id", step.ID),
			attribute.String("step.agent", step.Agent),
		))
		defer span.End()

		outcome := stepOutcome{stepID: step.ID, startedAt: started}

		runner, err := agent.NewRunner(desc, agent.WithAttemptHook(func(attempt int, attemptErr error) {
			emit(Event{
				Kind:      EventStepAttemptFailed,
				RunID:     state.ectx.RunID,
				Workflow:  state.def.Name,
				StepID:    step.ID,
				Agent:     step.Agent,
				Attempt:   attempt,
				Reason:    attemptErr.Error(),
				Timestamp: time.Now(),
			})
		}))
		if err != nil {
			outcome.err = err
		} else {
			res, runErr := runner.Run(stepCtx, input)
			outcome.output = res.Output
			outcome.attempts = res.Attempts
			outcome.err = runErr
		}

		outcome.finishedAt = time.Now()
		completions <- outcome
	}()
}

// fold applies one step outcome to the run state: success, workflow-level
// retry, or failure under the step's error policy.
func (e *Engine) fold(ctx context.Context, state *runState, outcome stepOutcome) {
	step, _ := state.def.Step(outcome.stepID)
	sr := state.ectx.Steps[outcome.stepID]

	if outcome.err == nil {
		sr.Status = StepSucceeded
		sr.Output = outcome.output
		sr.Attempts = outcome.attempts
		sr.StartedAt = outcome.startedAt
		sr.FinishedAt = outcome.finishedAt
		state.ectx.Outputs[outcome.stepID] = outcome.output

		state.emit(Event{
			Kind:      EventStepSucceeded,
			RunID:     state.ectx.RunID,
			Workflow:  state.def.Name,
			StepID:    outcome.stepID,
			Agent:     step.Agent,
			Attempt:   outcome.attempts,
			Timestamp: outcome.finishedAt,
		})
		e.metrics.RecordStep(ctx, step.Agent, string(StepSucceeded), outcome.finishedAt.Sub(outcome.startedAt), outcome.attempts)
		return
	}

	kind := agent.Classify(outcome.err)
	if kind == agent.KindCanceled {
		state.canceled = true
	}

	if state.shouldRequeue(step, kind) {
		state.requeues[step.ID]++
		sr.Status = StepPending
		e.logger.Warn("step re-queued",
			"workflow", state.def.Name,
			"run_id", state.ectx.RunID,
			"step", step.ID,
			"requeue", state.requeues[step.ID],
			"error", outcome.err)
		return
	}

	e.failStep(ctx, state, outcome)
}

// failStep records a terminal failure and applies the step's effective
// error policy to the rest of the run.
func (e *Engine) failStep(ctx context.Context, state *runState, outcome stepOutcome) {
	step, _ := state.def.Step(outcome.stepID)
	sr := state.ectx.Steps[outcome.stepID]
	kind := agent.Classify(outcome.err)

	sr.Status = StepFailed
	sr.Attempts = outcome.attempts
	sr.StartedAt = outcome.startedAt
	sr.FinishedAt = outcome.finishedAt
	if sr.FinishedAt.IsZero() {
		sr.FinishedAt = time.Now()
	}
	sr.Error = &StepError{Kind: kind, Message: outcome.err.Error()}

	state.emit(Event{
		Kind:      EventStepFailed,
		RunID:     state.ectx.RunID,
		Workflow:  state.def.Name,
		StepID:    step.ID,
		Agent:     step.Agent,
		Attempt:   outcome.attempts,
		Reason:    outcome.err.Error(),
		Timestamp: sr.FinishedAt,
	})
	e.metrics.RecordStep(ctx, step.Agent, string(StepFailed), sr.Duration(), outcome.attempts)
	e.logger.Error("step failed",
		"workflow", state.def.Name,
		"run_id", state.ectx.RunID,
		"step", step.ID,
		"kind", kind,
		"error", outcome.err)

	if state.effectivePolicy(step) == config.ErrorPolicyStop || state.canceled {
		state.stopping = true
	}
}

// effectiveDescriptor layers step and engine defaults over the registered
// descriptor: the step may tighten the timeout, the engine fills in
// retry, backoff and timeout values left at their zero values. The
// agent.NoRetries and agent.NoTimeout sentinels pass through untouched,
// so a descriptor can opt out of the defaults explicitly.
func (e *Engine) effectiveDescriptor(desc agent.Descriptor, step *config.WorkflowStep) agent.Descriptor {
	if step.Timeout > 0 {
		desc.Timeout = step.Timeout
	}
	if desc.Timeout == 0 {
		desc.Timeout = e.cfg.DefaultTimeout
	}
	if desc.MaxRetries == 0 {
		desc.MaxRetries = e.cfg.DefaultMaxRetries
	}
	if desc.Backoff.Base == 0 {
		desc.Backoff = e.cfg.DefaultBackoff
	}
	desc.Backoff.SetDefaults()
	return desc
}

// ============================================================================
// RUN STATE HELPERS
// ============================================================================

type depDecision int

const (
	depReady   depDecision = iota // all dependencies succeeded
	depWait                       // some dependency still pending or running
	depBlocked                    // some dependency failed or was skipped
)

func (s *runState) dependencyDecision(stepID string) (depDecision, string) {
	for _, dep := range s.plan.Graph.Dependencies(stepID) {
		switch s.ectx.Steps[dep].Status {
		case StepFailed, StepSkipped:
			return depBlocked, dep
		case StepSucceeded:
		default:
			return depWait, dep
		}
	}
	return depReady, ""
}

func (s *runState) hasPending() bool {
	for _, sr := range s.ectx.Steps {
		if sr.Status == StepPending {
			return true
		}
	}
	return false
}

// shouldRequeue decides whether a failed step goes back to the frontier
// under its retry policy. Contract violations and cancellations never
// re-queue.
func (s *runState) shouldRequeue(step *config.WorkflowStep, kind string) bool {
	if step.ErrorPolicy != config.ErrorPolicyRetry {
		return false
	}
	if kind == agent.KindValidation || kind == agent.KindCanceled {
		return false
	}
	return s.requeues[step.ID] < step.Retries
}

// effectivePolicy collapses the retry policy to its exhaustion fallback
func (s *runState) effectivePolicy(step *config.WorkflowStep) config.ErrorPolicy {
	if step.ErrorPolicy == config.ErrorPolicyRetry {
		return step.OnRetryExhausted
	}
	return step.ErrorPolicy
}

func (s *runState) skipStep(stepID, reason string) {
	sr := s.ectx.Steps[stepID]
	sr.Status = StepSkipped
	sr.SkipReason = reason

	step, _ := s.def.Step(stepID)
	s.emit(Event{
		Kind:      EventStepSkipped,
		RunID:     s.ectx.RunID,
		Workflow:  s.def.Name,
		StepID:    stepID,
		Agent:     step.Agent,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

// skipRemaining marks every non-terminal step skipped once the run stops,
// so the final result never reports a pending or running step.
func (s *runState) skipRemaining() {
	reason := "run stopped"
	if s.canceled {
		reason = "run canceled"
	}
	for _, id := range s.plan.Order {
		if !s.ectx.Steps[id].Status.Terminal() {
			s.skipStep(id, reason)
		}
	}
}

func (s *runState) finalStatus() RunStatus {
	if s.stopping {
		return RunFailed
	}
	for _, sr := range s.ectx.Steps {
		if sr.Status == StepFailed {
			return RunPartiallyCompleted
		}
	}
	return RunCompleted
}

func (s *runState) concurrencyLimit(limit int) int {
	if limit <= 0 {
		limit = 1
	}
	return limit
}

func (s *runState) emit(event Event) {
	for _, sink := range s.sinks {
		if sink != nil {
			sink.Emit(event)
		}
	}
}

// emitter returns an emit function safe to call from step goroutines
func (s *runState) emitter() func(Event) {
	sinks := s.sinks
	return func(event Event) {
		for _, sink := range sinks {
			if sink != nil {
				sink.Emit(event)
			}
		}
	}
}
