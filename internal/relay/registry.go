package relay

import (
	"sync"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/metrics"
)

// Registry maps each authenticated identity to its single live connection
// handle. All mutation goes through one mutex; admit, evict and lookup are
// short, so per-key locking is not worth its complexity here.
type Registry struct {
	mu    sync.Mutex
	conns map[domain.Identity]Handle

	pairs *Pairing
	met   *metrics.Relay
	log   zerolog.Logger
}

// NewRegistry returns an empty registry cascading evictions into pairs.
func NewRegistry(pairs *Pairing, met *metrics.Relay, log zerolog.Logger) *Registry {
	return &Registry{
		conns: make(map[domain.Identity]Handle),
		pairs: pairs,
		met:   met,
		log:   log.With().Str("component", "registry").Logger(),
	}
}

// Admit installs h as the identity's live handle. If the identity already has
// one, the old handle is superseded: its registry slot and pairing entries
// are released before h is installed (last-writer-wins), and the old handle
// is closed with the supersession close code. Installation itself cannot
// fail.
func (r *Registry) Admit(id domain.Identity, h Handle) {
	r.mu.Lock()
	old := r.conns[id]
	if old != nil {
		r.pairs.RemoveAll(id)
	}
	r.conns[id] = h
	r.mu.Unlock()

	r.met.Admitted.Inc()
	if old == nil {
		r.met.ActiveConnections.Inc()
	} else {
		r.met.Superseded.Inc()
		if err := old.Close(CloseSuperseded, ReasonSuperseded); err != nil {
			r.log.Debug().Err(err).Str("identity", id.String()).Msg("closing superseded handle")
		}
	}
	r.log.Info().Str("identity", id.String()).Bool("superseded", old != nil).Msg("connection admitted")
}

// Evict removes the identity's handle, whichever it is. Idempotent: evicting
// an absent identity is a no-op. The handle is closed best-effort and every
// pairing entry touching the identity is removed.
func (r *Registry) Evict(id domain.Identity) {
	r.mu.Lock()
	h, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
		r.pairs.RemoveAll(id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.finishEviction(id, h)
}

// Drop evicts the identity only if h is still its registered handle. Session
// loops drain through Drop so that the cleanup of a superseded connection
// can never evict the newly installed one.
func (r *Registry) Drop(id domain.Identity, h Handle) {
	r.mu.Lock()
	cur, ok := r.conns[id]
	if ok && cur == h {
		delete(r.conns, id)
		r.pairs.RemoveAll(id)
	} else {
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.finishEviction(id, h)
}

func (r *Registry) finishEviction(id domain.Identity, h Handle) {
	r.met.ActiveConnections.Dec()
	r.met.Evicted.Inc()
	if err := h.Close(CloseInternal, "connection evicted"); err != nil {
		r.log.Debug().Err(err).Str("identity", id.String()).Msg("closing evicted handle")
	}
	r.log.Info().Str("identity", id.String()).Msg("connection evicted")
}

// Lookup returns the identity's live handle, if any.
func (r *Registry) Lookup(id domain.Identity) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.conns[id]
	return h, ok
}

// IsOnline reports whether the identity has a registered handle that is
// still open.
func (r *Registry) IsOnline(id domain.Identity) bool {
	r.mu.Lock()
	h, ok := r.conns[id]
	r.mu.Unlock()
	return ok && !h.Closed()
}

// ListActive returns a snapshot of the registered identities. Diagnostics
// only.
func (r *Registry) ListActive() []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]domain.Identity, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// EvictAll evicts every registered connection through the normal cleanup
// path. Used on process shutdown.
func (r *Registry) EvictAll() {
	for _, id := range r.ListActive() {
		r.Evict(id)
	}
}
