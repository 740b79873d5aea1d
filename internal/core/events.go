package core

import (
	"context"
	"sync"
)

// EventLog is an in-memory EventSink that keeps every published event in
// publication order.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog { return &EventLog{} }

// Publish implements EventSink.
func (l *EventLog) Publish(_ context.Context, event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Names returns the names of the recorded events.
func (l *EventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.events))
	for i, e := range l.events {
		names[i] = e.EventName()
	}
	return names
}

// Reset discards recorded events.
func (l *EventLog) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}
