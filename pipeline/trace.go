package pipeline

import "sync"

// Trace accumulates ordered events for a single run. Steps are numbered from
// 1 in the order events are recorded; events are never rewritten or removed.
type Trace struct {
	mu     sync.Mutex
	events []TraceEvent
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Record appends an event and returns its step number.
func (t *Trace) Record(node string, eventType EventType, description string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	event := TraceEvent{
		Step:        len(t.events) + 1,
		Node:        node,
		Type:        eventType,
		Description: description,
	}
	t.events = append(t.events, event)
	return event.Step
}

// Events returns a copy of the recorded events in order.
func (t *Trace) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Len returns the number of recorded events.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}
