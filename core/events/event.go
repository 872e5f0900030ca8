package events

import "flashpool/core/types"

// Event represents a structured state change emitted by the pool.
type Event interface {
	EventType() string
}

// Converter is implemented by payloads that can render themselves as a
// generic attribute-map event for logs and indexers.
type Converter interface {
	Event() *types.Event
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
