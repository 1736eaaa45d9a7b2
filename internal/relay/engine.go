package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/metrics"
)

// Engine forwards envelopes between live connections. It never inspects
// ciphertext: payloads are relayed verbatim, signatures included, and the
// durable copy is an audit trail decoupled from the delivery outcome.
type Engine struct {
	reg   *Registry
	pairs *Pairing
	store domain.MessageStore
	met   *metrics.Relay
	log   zerolog.Logger

	// baseCtx bounds background persistence so appends are cancelled by
	// process shutdown, not by the eviction of the connection that sent
	// them.
	baseCtx context.Context
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewEngine returns an engine relaying through reg and journaling delivered
// envelopes to store.
func NewEngine(ctx context.Context, reg *Registry, pairs *Pairing, store domain.MessageStore, met *metrics.Relay, log zerolog.Logger) *Engine {
	return &Engine{
		reg:     reg,
		pairs:   pairs,
		store:   store,
		met:     met,
		log:     log.With().Str("component", "engine").Logger(),
		baseCtx: ctx,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Forward validates and delivers env on behalf of sender, then reports the
// outcome to the sender over h as exactly one status frame. The returned
// error is the relay outcome (nil means delivered); it is informational for
// the caller, which never treats it as connection-fatal.
//
// Order of checks and side effects:
//  1. structural validation - no side effects on failure
//  2. from/authenticated-identity equality - no side effects on failure
//  3. recipient presence - no side effects on failure
//  4. verbatim write to the recipient handle; a write error evicts the
//     recipient and fails this delivery
//  5. best-effort async persistence - never changes the outcome
//  6. opportunistic mutual pairing - failures silently ignored
func (e *Engine) Forward(sender domain.Identity, h Handle, env domain.Envelope) error {
	err := e.deliver(sender, env)
	e.sendStatus(sender, h, forwardStatus(env, err))
	return err
}

func (e *Engine) deliver(sender domain.Identity, env domain.Envelope) error {
	if missing := env.MissingFields(); len(missing) > 0 {
		return &MalformedPayloadError{Missing: missing}
	}
	if env.From != sender {
		return &SenderMismatchError{Claimed: env.From, Authenticated: sender}
	}
	peer, ok := e.reg.Lookup(env.To)
	if !ok || peer.Closed() {
		return &RecipientOfflineError{To: env.To}
	}

	if err := peer.WriteJSON(env); err != nil {
		// The handle is dead as far as this envelope is concerned; the
		// recipient does not get a second chance in this call.
		e.log.Warn().Err(err).
			Str("from", sender.String()).
			Str("to", env.To.String()).
			Msg("write to recipient failed, evicting")
		e.reg.Evict(env.To)
		e.met.DeliveryFailures.Inc()
		return ErrDeliveryFailed
	}
	e.met.Relayed.Inc()

	e.persistAsync(sender, env)

	// Presence hint for future Mutual queries; lost races are fine.
	e.pairs.Pair(sender, env.To)
	e.pairs.Pair(env.To, sender)
	return nil
}

// PairRequest handles an explicit pair frame: require a present, online
// target, set the one directed entry, and notify only the sender.
func (e *Engine) PairRequest(sender domain.Identity, h Handle, to domain.Identity) {
	switch {
	case to == "":
		e.sendStatus(sender, h, StatusPairMissingTo)
	case !e.reg.IsOnline(to):
		e.sendStatus(sender, h, statusOffline(to))
	default:
		e.pairs.Pair(sender, to)
		e.sendStatus(sender, h, statusPaired(to))
	}
}

// persistAsync journals the delivered envelope without blocking the relay
// path. A failed append is logged and otherwise dropped: delivery already
// succeeded and is not rolled back.
func (e *Engine) persistAsync(sender domain.Identity, env domain.Envelope) {
	rec := domain.MessageRecord{
		SenderID:         sender,
		ReceiverID:       env.To,
		MessageType:      "encrypted",
		Ciphertext:       env.Ciphertext,
		EncryptedMessage: env.EncryptedMessage,
		IV:               env.IV,
		Signature:        env.Signature,
		Timestamp:        e.now(),
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.store.AppendMessage(e.baseCtx, rec); err != nil {
			e.met.PersistFailures.Inc()
			e.log.Error().Err(err).
				Str("from", sender.String()).
				Str("to", env.To.String()).
				Msg("persisting delivered message failed")
			return
		}
		e.met.Persisted.Inc()
	}()
}

// Wait blocks until in-flight persistence goroutines finish. Shutdown helper.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) sendStatus(sender domain.Identity, h Handle, status string) {
	if err := h.WriteText(status); err != nil {
		e.log.Debug().Err(err).Str("identity", sender.String()).Msg("status frame write failed")
	}
}

// forwardStatus maps a delivery outcome to the sender-facing status text.
func forwardStatus(env domain.Envelope, err error) string {
	if err == nil {
		return StatusDelivered
	}
	var malformed *MalformedPayloadError
	var offline *RecipientOfflineError
	switch {
	case errors.As(err, &malformed):
		return statusMissingFields(malformed.Missing)
	case errors.As(err, new(*SenderMismatchError)):
		return StatusMismatch
	case errors.As(err, &offline):
		return statusOffline(offline.To)
	default:
		return StatusDeliveryFail
	}
}
