package base

import "github.com/viant/jsonrpc/sse"

// Option represents option
type Option func(s *Session)

// WithEventStore backs the session's resumable event buffer with an
// sse.Store instead of the built-in slice, giving O(1) replay-from-id
// lookups (spec §4.5) instead of this package's linear scan.
func WithEventStore(store *sse.Store) Option {
	return func(s *Session) { s.eventStore = store }
}

func WithFramer(framer FrameMessage) Option {
	return func(s *Session) {
		s.framer = framer
	}
}

// OverflowPolicy decides what happens when a session's buffered-event list
// exceeds its configured capacity.
type OverflowPolicy int

const (
	// OverflowDrop silently drops the oldest events (the default).
	OverflowDrop OverflowPolicy = iota
	// OverflowMark drops the oldest events and also sets the session's
	// overflowed flag; nothing in this package reads the flag, so replay
	// output is the same as under OverflowDrop.
	OverflowMark
)

// WithSSE marks the session as an SSE stream: SendData prefixes each frame
// with an "id: N\n" line instead of writing the raw framed bytes.
func WithSSE() Option {
	return func(s *Session) { s.sse = true }
}

// WithEventBuffer sets how many recent events the session retains for
// Last-Event-ID replay on reconnect.
func WithEventBuffer(size int) Option {
	return func(s *Session) { s.bufferSize = size }
}

// WithOverflowPolicy sets the session's buffer overflow behaviour.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(s *Session) { s.overflowPolicy = p }
}
