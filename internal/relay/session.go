package relay

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
)

// Inbound frame discriminators.
const (
	FrameEncryptedMessage = "encrypted-message"
	FramePair             = "pair"
	FramePing             = "ping"
)

// DefaultIdleProbe is how long a session waits for an inbound frame before
// probing the peer with a ping.
const DefaultIdleProbe = 30 * time.Second

// Session is the per-connection control loop. One session runs per admitted
// connection, in its own goroutine, and talks to other connections only
// through the registry and pairing table.
//
// Lifecycle: the transport is accepted and authenticated by the HTTP layer
// before a session exists. Run admits the handle, processes frames strictly
// in arrival order until the transport fails or the connection is superseded,
// then drains: eviction of this handle runs exactly once, on every exit path.
type Session struct {
	id     domain.Identity
	h      Handle
	engine *Engine
	reg    *Registry
	idle   time.Duration
	log    zerolog.Logger
}

// NewSession builds a session for an authenticated connection. idle <= 0
// selects DefaultIdleProbe.
func NewSession(id domain.Identity, h Handle, engine *Engine, reg *Registry, idle time.Duration, log zerolog.Logger) *Session {
	if idle <= 0 {
		idle = DefaultIdleProbe
	}
	return &Session{
		id:     id,
		h:      h,
		engine: engine,
		reg:    reg,
		idle:   idle,
		log:    log.With().Str("component", "session").Str("identity", id.String()).Logger(),
	}
}

// Run drives the connection until it closes. It blocks for the lifetime of
// the connection and performs the mandatory cleanup before returning.
func (s *Session) Run() {
	s.reg.Admit(s.id, s.h)
	defer s.reg.Drop(s.id, s.h)

	if err := s.h.WriteText(StatusConnected); err != nil {
		return
	}

	frames := make(chan []byte)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go s.readPump(frames, errc, done)

	timer := time.NewTimer(s.idle)
	defer timer.Stop()

	for {
		select {
		case data := <-frames:
			s.dispatch(data)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.idle)
		case <-timer.C:
			// Idle: probe instead of closing, so a quiet peer gets a
			// chance to answer. If the write fails the transport is
			// dead and the session drains.
			if err := s.h.WriteJSON(pingFrame); err != nil {
				s.log.Debug().Err(err).Msg("idle probe write failed")
				return
			}
			timer.Reset(s.idle)
		case err := <-errc:
			s.log.Debug().Err(err).Msg("session read ended")
			return
		}
	}
}

// readPump feeds inbound frames to Run one at a time, preserving arrival
// order. It exits when the handle fails or the session is done.
func (s *Session) readPump(frames chan<- []byte, errc chan<- error, done <-chan struct{}) {
	for {
		data, err := s.h.ReadFrame()
		if err != nil {
			errc <- err
			return
		}
		select {
		case frames <- data:
		case <-done:
			return
		}
	}
}

func (s *Session) dispatch(data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendStatus(StatusInvalidFormat)
		return
	}
	switch env.Type {
	case FrameEncryptedMessage:
		// Outcome is reported to the sender as a status frame; none of
		// the relay error kinds are fatal to this session.
		_ = s.engine.Forward(s.id, s.h, env)
	case FramePair:
		s.engine.PairRequest(s.id, s.h, env.To)
	case FramePing:
		if err := s.h.WriteJSON(pongFrame); err != nil {
			s.log.Debug().Err(err).Msg("pong write failed")
		}
	default:
		s.sendStatus(StatusUnknownType)
	}
}

func (s *Session) sendStatus(status string) {
	if err := s.h.WriteText(status); err != nil {
		s.log.Debug().Err(err).Msg("status frame write failed")
	}
}
