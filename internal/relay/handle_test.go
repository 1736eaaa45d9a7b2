package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/metrics"
	"sealchat/internal/relay"
)

// fakeHandle is an in-memory relay.Handle. Inbound frames are fed through
// the in channel; writes are captured for assertions.
type fakeHandle struct {
	in chan []byte

	mu          sync.Mutex
	texts       []string
	jsonFrames  [][]byte
	failWrites  bool
	closed      bool
	closedCh    chan struct{}
	closeCode   int
	closeReason string
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		in:       make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

func (h *fakeHandle) ReadFrame() ([]byte, error) {
	select {
	case data, ok := <-h.in:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-h.closedCh:
		return nil, net.ErrClosed
	}
}

func (h *fakeHandle) WriteJSON(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWrites || h.closed {
		return errors.New("write on dead handle")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.jsonFrames = append(h.jsonFrames, data)
	return nil
}

func (h *fakeHandle) WriteText(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWrites || h.closed {
		return errors.New("write on dead handle")
	}
	h.texts = append(h.texts, s)
	return nil
}

func (h *fakeHandle) Close(code int, reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.closeCode = code
	h.closeReason = reason
	close(h.closedCh)
	return nil
}

func (h *fakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *fakeHandle) sentTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}

func (h *fakeHandle) sentJSON() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.jsonFrames))
	for i, f := range h.jsonFrames {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

func (h *fakeHandle) closeInfo() (int, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCode, h.closeReason
}

// fakeStore records appended messages and can be made to fail.
type fakeStore struct {
	mu    sync.Mutex
	recs  []domain.MessageRecord
	err   error
	added chan domain.MessageRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{added: make(chan domain.MessageRecord, 16)}
}

func (s *fakeStore) AppendMessage(_ context.Context, rec domain.MessageRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.recs = append(s.recs, rec)
	s.added <- rec
	return "msg-1", nil
}

func (s *fakeStore) MessagesBetween(_ context.Context, a, b domain.Identity) ([]domain.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MessageRecord
	for _, r := range s.recs {
		if (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a) {
			out = append(out, r)
		}
	}
	return out, nil
}

// rig wires a registry, pairing table and engine around fakes.
type rig struct {
	pairs  *relay.Pairing
	reg    *relay.Registry
	engine *relay.Engine
	store  *fakeStore
}

func newRig(t *testing.T) *rig {
	t.Helper()
	met := metrics.NewRelay(prometheus.NewRegistry())
	pairs := relay.NewPairing()
	reg := relay.NewRegistry(pairs, met, zerolog.Nop())
	pairs.SetPresence(reg.IsOnline)
	store := newFakeStore()
	engine := relay.NewEngine(context.Background(), reg, pairs, store, met, zerolog.Nop())
	return &rig{pairs: pairs, reg: reg, engine: engine, store: store}
}

func validEnvelope(from, to domain.Identity) domain.Envelope {
	return domain.Envelope{
		Type:             relay.FrameEncryptedMessage,
		From:             from,
		To:               to,
		Ciphertext:       "a2V5",
		EncryptedMessage: "Ym9keQ",
		IV:               "aXY",
		Signature:        "c2ln",
	}
}

func waitPersisted(t *testing.T, s *fakeStore) domain.MessageRecord {
	t.Helper()
	select {
	case rec := <-s.added:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("message was not persisted")
		return domain.MessageRecord{}
	}
}

func requireNothingPersisted(t *testing.T, s *fakeStore) {
	t.Helper()
	select {
	case rec := <-s.added:
		t.Fatalf("unexpected persisted record: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}
