package server

import (
	"context"
	"net/http"

	"sealchat/internal/domain"
)

// accessTokenCookie is the session cookie name. Deployed clients send it on
// both REST and websocket requests.
const accessTokenCookie = "access_token"

type ctxKey int

const accountKey ctxKey = iota

// authenticate loads the account named by the access_token cookie and puts
// it on the request context. Requests without a valid token get 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.accountFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acct)))
	})
}

// accountFromRequest resolves the cookie to an active account. It reports
// identity-or-nothing: callers cannot distinguish a missing cookie from a
// bad signature or a deactivated account.
func (s *Server) accountFromRequest(r *http.Request) (domain.Account, bool) {
	c, err := r.Cookie(accessTokenCookie)
	if err != nil || c.Value == "" {
		return domain.Account{}, false
	}
	sub, err := s.tokens.Verify(c.Value)
	if err != nil {
		return domain.Account{}, false
	}
	acct, ok, err := s.accounts.Get(r.Context(), sub)
	if err != nil || !ok || !acct.IsActive {
		return domain.Account{}, false
	}
	return acct, true
}

func requestAccount(r *http.Request) domain.Account {
	acct, _ := r.Context().Value(accountKey).(domain.Account)
	return acct
}

func (s *Server) setSessionCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
