package progress

import "sync"

// Sink receives the progress events and user-facing log lines of a run.
type Sink interface {
	Progress(pct float64)
	Log(msg string)
}

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	OnProgress func(pct float64)
	OnLog      func(msg string)
}

// Progress implements Sink
func (s SinkFuncs) Progress(pct float64) {
	if s.OnProgress != nil {
		s.OnProgress(pct)
	}
}

// Log implements Sink
func (s SinkFuncs) Log(msg string) {
	if s.OnLog != nil {
		s.OnLog(msg)
	}
}

// Discard drops everything
var Discard Sink = SinkFuncs{}

// MonotonicSink forwards only events that do not go below the last one
// forwarded. Log lines pass through untouched.
type MonotonicSink struct {
	next Sink

	mu   sync.Mutex
	last float64
	seen bool
}

// Monotonic wraps next so that its progress curve never decreases.
func Monotonic(next Sink) *MonotonicSink {
	if next == nil {
		next = Discard
	}
	return &MonotonicSink{next: next}
}

// Progress implements Sink
func (m *MonotonicSink) Progress(pct float64) {
	m.mu.Lock()
	if m.seen && pct < m.last {
		m.mu.Unlock()
		return
	}
	m.last, m.seen = pct, true
	m.mu.Unlock()

	m.next.Progress(pct)
}

// Log implements Sink
func (m *MonotonicSink) Log(msg string) {
	m.next.Log(msg)
}

// Last returns the highest percentage forwarded so far.
func (m *MonotonicSink) Last() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
