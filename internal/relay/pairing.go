package relay

import (
	"sync"

	"sealchat/internal/domain"
)

// Pairing records a directed "is talking to" relation between identities.
// It is a presence hint only: delivery is resolved by the destination address
// in the envelope, so a missing or stale entry never blocks anything.
type Pairing struct {
	mu   sync.Mutex
	next map[domain.Identity]domain.Identity

	// online reports registry presence. It is consulted before taking the
	// pairing lock so the two tables never hold each other's locks.
	online func(domain.Identity) bool
}

// NewPairing returns an empty pairing table.
func NewPairing() *Pairing {
	return &Pairing{next: make(map[domain.Identity]domain.Identity)}
}

// SetPresence installs the registry's online check. Must be called before the
// table is used; split from NewPairing because the registry is constructed
// with a reference to the table.
func (p *Pairing) SetPresence(online func(domain.Identity) bool) {
	p.online = online
}

// Pair sets the directed entry a -> b if both identities are currently
// online. Otherwise it is a no-op, not an error: callers decide whether the
// skipped pairing is worth surfacing.
func (p *Pairing) Pair(a, b domain.Identity) {
	if !p.online(a) || !p.online(b) {
		return
	}
	p.mu.Lock()
	p.next[a] = b
	p.mu.Unlock()
}

// Mutual reports whether a -> b and b -> a both currently hold.
func (p *Pairing) Mutual(a, b domain.Identity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next[a] == b && p.next[b] == a
}

// RemoveAll removes the identity's own outgoing entry and every entry whose
// target is the identity. Invoked unconditionally on eviction.
func (p *Pairing) RemoveAll(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.next, id)
	for from, to := range p.next {
		if to == id {
			delete(p.next, from)
		}
	}
}
