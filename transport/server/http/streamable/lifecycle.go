package streamable

import (
	"time"

	"github.com/viant/jsonrpc/transport/server/base"
)

// startCleanup launches the session sweeper if CleanupInterval is set; it
// runs for the handler's lifetime (there is no explicit Close, matching the
// teacher's habit of leaving ambient sweepers running alongside the server).
func (h *Handler) startCleanup() {
	if h.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.CleanupInterval)
	go func() {
		for range ticker.C {
			h.sweep()
		}
	}()
}

type doomedSession struct {
	id string
	s  *base.Session
}

// sweep collects expired/abandoned sessions under a read-style pass over the
// session store, then removes them, mirroring the cache's and connection
// pool's two-phase prune so the store isn't mutated mid-iteration.
func (h *Handler) sweep() {
	now := time.Now()
	var expired []doomedSession
	h.base.Sessions.Range(func(id string, s *base.Session) bool {
		if h.shouldRemove(s, now) {
			expired = append(expired, doomedSession{id: id, s: s})
		}
		return true
	})
	for _, d := range expired {
		h.base.Sessions.Delete(d.id)
		h.events.Drop(d.id)
		if h.OnSessionClose != nil {
			h.OnSessionClose(d.s)
		}
	}
}

// shouldRemove implements the session's removal contract: MaxLifetime is a
// hard cap regardless of state; a Detached session is governed by
// RemovalPolicy; anything else (Active) is still subject to IdleTTL.
func (h *Handler) shouldRemove(s *base.Session, now time.Time) bool {
	s.Lock()
	defer s.Unlock()

	if h.MaxLifetime > 0 && now.Sub(s.CreatedAt) > h.MaxLifetime {
		return true
	}
	if s.State == base.SessionStateDetached {
		switch h.RemovalPolicy {
		case base.RemovalOnDisconnect:
			return true
		case base.RemovalAfterGrace:
			if s.DetachedAt == nil {
				return true
			}
			return h.ReconnectGrace <= 0 || now.Sub(*s.DetachedAt) > h.ReconnectGrace
		case base.RemovalManual:
			return false
		}
	}
	return h.IdleTTL > 0 && now.Sub(s.LastSeen) > h.IdleTTL
}
