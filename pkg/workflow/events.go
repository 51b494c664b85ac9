package workflow

import (
	"time"
)

// EventKind identifies one lifecycle notification
type EventKind string

const (
	EventStepStarted       EventKind = "step_started"
	EventStepAttemptFailed EventKind = "step_attempt_failed"
	EventStepSucceeded     EventKind = "step_succeeded"
	EventStepFailed        EventKind = "step_failed"
	EventStepSkipped       EventKind = "step_skipped"
	EventRunCompleted      EventKind = "run_completed"
)

// Event is one lifecycle notification. Events for the same step are
// emitted in order; ordering across concurrent steps is not defined.
type Event struct {
	Kind      EventKind `json:"kind"`
	RunID     string    `json:"run_id"`
	Workflow  string    `json:"workflow"`
	StepID    string    `json:"step_id,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	Status    RunStatus `json:"status,omitempty"` // Set on run_completed
	Reason    string    `json:"reason,omitempty"` // Skip reason or error text
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives lifecycle events. Emit is called synchronously from step
// goroutines, so implementations must not block for long.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(event Event)

func (f SinkFunc) Emit(event Event) {
	f(event)
}

// ChannelSink forwards events into a channel, dropping them when the
// channel is full rather than stalling the run.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink buffering up to size events
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, size)}
}

// Events returns the receive side of the sink
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

func (s *ChannelSink) Emit(event Event) {
	select {
	case s.ch <- event:
	default:
	}
}

// Close closes the event channel. Call only after the run has finished.
func (s *ChannelSink) Close() {
	close(s.ch)
}
