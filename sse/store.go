// Package sse implements the per-stream resumable event store described in
// spec §4.5: a fixed-capacity circular buffer with an auxiliary hash index
// so that replaying events after a Last-Event-ID is O(1) to locate and
// linear in the number of events actually replayed.
package sse

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Event is a single stored SSE event (spec §3).
type Event struct {
	ID   uint64
	Type string
	Data string
}

// Store is a circular buffer of at most MaxEvents events for one stream,
// plus a hash index from event id to buffer position so Replay can seek
// directly to the resume point instead of scanning.
type Store struct {
	mu sync.Mutex

	maxEvents int
	events    []Event
	valid     []bool
	head      int // next write position
	count     int
	nextID    uint64

	index map[uint64]int // event id -> position in events
}

// NewStore creates a Store with room for maxEvents events.
func NewStore(maxEvents int) *Store {
	if maxEvents <= 0 {
		maxEvents = 1
	}
	return &Store{
		maxEvents: maxEvents,
		events:    make([]Event, maxEvents),
		valid:     make([]bool, maxEvents),
		index:     make(map[uint64]int, maxEvents),
	}
}

// Append assigns the next monotonically increasing event id, stores the
// event, evicting the oldest entry if the buffer is full, and returns the
// assigned id.
func (s *Store) Append(eventType, data string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	pos := s.head
	if s.valid[pos] {
		delete(s.index, s.events[pos].ID)
	} else {
		s.count++
	}
	s.events[pos] = Event{ID: id, Type: eventType, Data: data}
	s.valid[pos] = true
	s.index[id] = pos
	s.head = (s.head + 1) % s.maxEvents
	return id
}

// Replay returns every stored event with id strictly greater than lastID, in
// ascending id order. If lastID is no longer resident (evicted), Replay
// returns everything currently stored — the gap in ids is visible to the
// caller as data loss, per spec §4.5.
func (s *Store) Replay(lastID uint64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return nil
	}

	if pos, ok := s.index[lastID]; ok && lastID != 0 {
		// lastID is resident: walk forward from its slot to the newest event.
		n := (s.head - pos - 1 + s.maxEvents) % s.maxEvents
		out := make([]Event, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, s.events[(pos+i)%s.maxEvents])
		}
		return out
	}

	start := 0 // oldest slot
	if s.count == s.maxEvents {
		start = s.head
	}

	ordered := make([]Event, 0, s.count)
	for i := 0; i < s.count; i++ {
		pos := (start + i) % s.maxEvents
		if s.valid[pos] {
			ordered = append(ordered, s.events[pos])
		}
	}

	if lastID == 0 {
		return ordered
	}
	// lastID evicted or never seen on this buffer: caller sees the gap.
	var out []Event
	for _, ev := range ordered {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// NextID returns the id that would be assigned to the next Append call.
func (s *Store) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID + 1
}

// StreamKey derives a collision-resistant index key for a stream identity
// (session id + connection ordinal) using blake2b, the same hashing family
// already pulled in transitively by the teacher's dependency graph
// (golang.org/x/crypto), now exercised directly.
func StreamKey(sessionID string, ordinal uint64) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	_, _ = h.Write([]byte(sessionID))
	_, _ = fmt.Fprintf(h, ":%d", ordinal)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
