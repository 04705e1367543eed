package sse

import "github.com/viant/jsonrpc/internal/collection"

// Registry owns one Store per live stream. Lookups hold the registry's map
// lock only for the map access itself; event append/replay is serialised
// per-stream by Store's own mutex.
type Registry struct {
	streams   *collection.SyncMap[string, *Store]
	maxEvents int
}

// NewRegistry creates a Registry whose streams each buffer up to maxEvents events.
func NewRegistry(maxEvents int) *Registry {
	return &Registry{
		streams:   collection.NewSyncMap[string, *Store](),
		maxEvents: maxEvents,
	}
}

// Stream returns (creating if necessary) the Store for streamID.
func (r *Registry) Stream(streamID string) *Store {
	return r.streams.GetOrCreate(streamID, func() *Store { return NewStore(r.maxEvents) })
}

// Drop removes the Store for streamID, e.g. on session termination.
func (r *Registry) Drop(streamID string) {
	r.streams.Delete(streamID)
}
