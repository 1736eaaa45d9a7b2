package relay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sealchat/internal/domain"
	"sealchat/internal/relay"
)

func TestRegistry_AdmitAndLookup(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()

	r.reg.Admit("alice", h)

	got, ok := r.reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, h, got)
	require.True(t, r.reg.IsOnline("alice"))
	require.Equal(t, []domain.Identity{"alice"}, r.reg.ListActive())
}

func TestRegistry_AdmitSupersedes(t *testing.T) {
	r := newRig(t)
	first := newFakeHandle()
	second := newFakeHandle()

	r.reg.Admit("alice", first)
	r.reg.Admit("alice", second)

	require.True(t, first.Closed(), "superseded handle must be closed")
	code, reason := first.closeInfo()
	require.Equal(t, relay.CloseSuperseded, code)
	require.Equal(t, relay.ReasonSuperseded, reason)

	got, ok := r.reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, second, got)
	require.Len(t, r.reg.ListActive(), 1, "exactly one handle after supersession")
	require.False(t, second.Closed())
}

func TestRegistry_EvictIsIdempotent(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	r.reg.Admit("alice", h)

	r.reg.Evict("alice")
	require.False(t, r.reg.IsOnline("alice"))
	require.True(t, h.Closed())
	require.Empty(t, r.reg.ListActive())

	// Second eviction observes the same state.
	r.reg.Evict("alice")
	require.False(t, r.reg.IsOnline("alice"))
	require.Empty(t, r.reg.ListActive())
}

func TestRegistry_EvictCascadesToPairing(t *testing.T) {
	r := newRig(t)
	r.reg.Admit("alice", newFakeHandle())
	r.reg.Admit("bob", newFakeHandle())
	r.pairs.Pair("alice", "bob")
	r.pairs.Pair("bob", "alice")
	require.True(t, r.pairs.Mutual("alice", "bob"))

	r.reg.Evict("alice")

	// Both alice's outgoing entry and bob's entry targeting alice are gone.
	require.False(t, r.pairs.Mutual("alice", "bob"))
	r.reg.Admit("alice", newFakeHandle())
	require.False(t, r.pairs.Mutual("alice", "bob"))
}

func TestRegistry_DropIgnoresReplacedHandle(t *testing.T) {
	r := newRig(t)
	old := newFakeHandle()
	replacement := newFakeHandle()

	r.reg.Admit("alice", old)
	r.reg.Admit("alice", replacement)

	// The superseded connection's drain must not evict the new handle.
	r.reg.Drop("alice", old)

	require.True(t, r.reg.IsOnline("alice"))
	got, ok := r.reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, replacement, got)

	r.reg.Drop("alice", replacement)
	require.False(t, r.reg.IsOnline("alice"))
}

func TestRegistry_IsOnlineRequiresOpenHandle(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	r.reg.Admit("alice", h)

	require.True(t, r.reg.IsOnline("alice"))
	_ = h.Close(relay.CloseInternal, "test")
	require.False(t, r.reg.IsOnline("alice"), "present but closed handle is not online")
}

func TestRegistry_EvictAll(t *testing.T) {
	r := newRig(t)
	a := newFakeHandle()
	b := newFakeHandle()
	r.reg.Admit("alice", a)
	r.reg.Admit("bob", b)

	r.reg.EvictAll()

	require.Empty(t, r.reg.ListActive())
	require.True(t, a.Closed())
	require.True(t, b.Closed())
}
