package events

import (
	"log/slog"

	"launchpad/core/types"
)

// Event represents a structured state change emitted by the engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// LogEmitter writes every emitted event to a structured logger, flattening the
// generic payload attributes into log fields. It is the sink the sale daemon
// runs with, where no external event bus exists.
type LogEmitter struct {
	log *slog.Logger
}

// NewLogEmitter creates a log-backed emitter. A nil logger falls back to the
// process default.
func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{log: log}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || l.log == nil || evt == nil {
		return
	}
	args := []any{"type", evt.EventType()}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, key, value)
			}
		}
	}
	l.log.Info("event", args...)
}
