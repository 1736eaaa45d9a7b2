package server

import (
	"net/http"

	"sealchat/internal/domain"
	"sealchat/internal/relay"
)

// handleChat upgrades to websocket and runs a relay session for the
// authenticated account. Authentication happens after the upgrade so an
// unauthenticated client still receives the status frame before the policy
// close; such connections never reach the registry.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	h := newWSHandle(conn)

	acct, ok := s.accountFromRequest(r)
	if !ok {
		_ = h.WriteText(relay.StatusUnauthorized)
		_ = h.Close(relay.ClosePolicy, "not authenticated")
		return
	}

	sess := relay.NewSession(domain.Identity(acct.ID), h, s.engine, s.reg, s.idleProbe, s.log)
	sess.Run()
	// The session has been dropped from the registry; make sure the
	// transport is gone too in case the peer vanished without a close frame.
	_ = h.Close(relay.CloseInternal, "session ended")
}
