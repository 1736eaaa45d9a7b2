package relay_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"sealchat/internal/domain"
	"sealchat/internal/relay"
)

func startSession(t *testing.T, r *rig, id domain.Identity, h *fakeHandle, idle time.Duration) chan struct{} {
	t.Helper()
	sess := relay.NewSession(id, h, r.engine, r.reg, idle, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run()
	}()
	// The greeting status confirms the session is admitted and running.
	require.Eventually(t, func() bool {
		texts := h.sentTexts()
		return len(texts) > 0 && texts[0] == relay.StatusConnected
	}, 2*time.Second, 5*time.Millisecond)
	return done
}

func endSession(t *testing.T, h *fakeHandle, done chan struct{}) {
	t.Helper()
	close(h.in)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not drain")
	}
}

func frame(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSession_PingGetsPong(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	done := startSession(t, r, "alice", h, 0)

	h.in <- []byte(`{"type":"ping"}`)

	require.Eventually(t, func() bool {
		for _, f := range h.sentJSON() {
			if string(f) == `{"type":"pong"}` {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	endSession(t, h, done)
}

func TestSession_UnknownTypeIsReported(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	done := startSession(t, r, "alice", h, 0)

	h.in <- []byte(`{"type":"presence-subscribe"}`)

	require.Eventually(t, func() bool {
		texts := h.sentTexts()
		return len(texts) == 2 && texts[1] == relay.StatusUnknownType
	}, 2*time.Second, 5*time.Millisecond)

	// Not fatal: the session keeps serving.
	require.True(t, r.reg.IsOnline("alice"))
	endSession(t, h, done)
}

func TestSession_MalformedFrameIsReported(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	done := startSession(t, r, "alice", h, 0)

	h.in <- []byte(`{not json`)

	require.Eventually(t, func() bool {
		texts := h.sentTexts()
		return len(texts) == 2 && texts[1] == relay.StatusInvalidFormat
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, r.reg.IsOnline("alice"))
	endSession(t, h, done)
}

func TestSession_ForwardsEncryptedMessage(t *testing.T) {
	r := newRig(t)
	alice := newFakeHandle()
	bob := newFakeHandle()
	doneA := startSession(t, r, "alice", alice, 0)
	doneB := startSession(t, r, "bob", bob, 0)

	env := validEnvelope("alice", "bob")
	alice.in <- frame(t, env)

	require.Eventually(t, func() bool {
		return len(bob.sentJSON()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	var got domain.Envelope
	require.NoError(t, json.Unmarshal(bob.sentJSON()[0], &got))
	require.Equal(t, env, got)

	require.Eventually(t, func() bool {
		texts := alice.sentTexts()
		return len(texts) == 2 && texts[1] == relay.StatusDelivered
	}, 2*time.Second, 5*time.Millisecond)

	endSession(t, alice, doneA)
	endSession(t, bob, doneB)
}

func TestSession_IdleProbe(t *testing.T) {
	r := newRig(t)
	h := newFakeHandle()
	done := startSession(t, r, "alice", h, 200*time.Millisecond)

	// One quiet interval: exactly one probe, still registered.
	require.Eventually(t, func() bool {
		return countPings(h) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 1, countPings(h))
	require.True(t, r.reg.IsOnline("alice"))

	endSession(t, h, done)
}

func countPings(h *fakeHandle) int {
	n := 0
	for _, f := range h.sentJSON() {
		if string(f) == `{"type":"ping"}` {
			n++
		}
	}
	return n
}

func TestSession_DisconnectCleansUp(t *testing.T) {
	r := newRig(t)
	alice := newFakeHandle()
	bob := newFakeHandle()
	doneA := startSession(t, r, "alice", alice, 0)
	doneB := startSession(t, r, "bob", bob, 0)

	alice.in <- frame(t, validEnvelope("alice", "bob"))
	require.Eventually(t, func() bool {
		return r.pairs.Mutual("alice", "bob")
	}, 2*time.Second, 5*time.Millisecond)

	endSession(t, alice, doneA)

	require.False(t, r.reg.IsOnline("alice"))
	require.False(t, r.pairs.Mutual("alice", "bob"))
	require.True(t, r.reg.IsOnline("bob"))
	endSession(t, bob, doneB)
}

func TestSession_SupersessionKeepsReplacement(t *testing.T) {
	r := newRig(t)
	first := newFakeHandle()
	doneFirst := startSession(t, r, "alice", first, 0)

	second := newFakeHandle()
	doneSecond := startSession(t, r, "alice", second, 0)

	// The first session observes its closed handle and drains without
	// touching the replacement.
	select {
	case <-doneFirst:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded session did not drain")
	}
	code, reason := first.closeInfo()
	require.Equal(t, relay.CloseSuperseded, code)
	require.Equal(t, relay.ReasonSuperseded, reason)

	require.True(t, r.reg.IsOnline("alice"))
	got, ok := r.reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, second, got)

	endSession(t, second, doneSecond)
}
