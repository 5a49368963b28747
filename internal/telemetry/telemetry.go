// Package telemetry defines the fire-and-forget event sink used by the
// search context UI, plus a few sink implementations.
package telemetry

import (
	"log/slog"
	"sync"
)

// Event names emitted by the search context dropdown and CTA.
const (
	EventDropdownToggled = "SearchContextDropdownToggled"
	EventDropdownViewed  = "SearchContextsDropdownViewed"
	EventCTAShown        = "SearchResultContextsCTAShown"
	EventCTADismissed    = "SearchResultContextsCTADismissed"
)

// Sink receives named events. Implementations must not block for long and
// must handle their own failures.
type Sink interface {
	Log(event string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(event string)

// Log implements Sink.
func (f SinkFunc) Log(event string) { f(event) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(string) {})

// Safe wraps s so that a panicking sink never reaches the caller.
// A nil s yields Discard.
func Safe(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return safeSink{s}
}

type safeSink struct{ next Sink }

func (s safeSink) Log(event string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("telemetry: sink panicked", "event", event, "panic", r)
		}
	}()
	s.next.Log(event)
}

// Multi fans every event out to all sinks, in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(event string) {
		for _, s := range sinks {
			Safe(s).Log(event)
		}
	})
}

// LogSink writes events to slog at debug level.
type LogSink struct {
	Logger *slog.Logger
}

// Log implements Sink.
func (l LogSink) Log(event string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("telemetry event", "event", event)
}

// Recorder keeps events in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Log implements Sink.
func (r *Recorder) Log(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}
