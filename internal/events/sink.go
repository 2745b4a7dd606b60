// Package events defines the one-way progress event sink that mirrors
// orchestration progress to observers. Emission is fire-and-forget: a sink
// must never block the verification pipeline and no acknowledgment exists.
package events

import (
	"time"

	"go.uber.org/zap"
)

// Event is one orchestration progress notification
type Event struct {
	Type    string    `json:"type"`    // claim_state, provider_failure, run_complete, ...
	Message string    `json:"message"`
	Status  string    `json:"status,omitempty"`
	ClaimID string    `json:"claim_id,omitempty"`
	At      time.Time `json:"at"`
}

// Sink receives events. Emit must not block.
type Sink interface {
	Emit(evt Event)
}

// NopSink discards all events
type NopSink struct{}

func (NopSink) Emit(Event) {}

// LogSink mirrors events to a structured logger
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink that writes events at info level
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(evt Event) {
	s.log.Info("event",
		zap.String("type", evt.Type),
		zap.String("message", evt.Message),
		zap.String("status", evt.Status),
		zap.String("claim_id", evt.ClaimID),
	)
}

// MemorySink buffers events in a bounded channel. When the buffer is full
// the event is dropped rather than blocking the pipeline.
type MemorySink struct {
	ch chan Event
}

// NewMemorySink creates a sink buffering up to size events
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = 256
	}
	return &MemorySink{ch: make(chan Event, size)}
}

func (s *MemorySink) Emit(evt Event) {
	select {
	case s.ch <- evt:
	default:
		// Buffer full: drop. Progress events are advisory.
	}
}

// Drain returns all buffered events without blocking
func (s *MemorySink) Drain() []Event {
	var out []Event
	for {
		select {
		case evt := <-s.ch:
			out = append(out, evt)
		default:
			return out
		}
	}
}

// Multi fans one event out to several sinks
type Multi []Sink

func (m Multi) Emit(evt Event) {
	for _, s := range m {
		s.Emit(evt)
	}
}
