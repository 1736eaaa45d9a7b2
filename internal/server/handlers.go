package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sealchat/internal/domain"
	"sealchat/internal/services/account"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// serviceError maps a service failure to the HTTP response.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrWeakPassword),
		errors.Is(err, account.ErrInvalidKeyEncoding),
		errors.Is(err, account.ErrSelfConnect),
		errors.Is(err, account.ErrNoOTP):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrOTPInvalid),
		errors.Is(err, account.ErrOTPExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, account.ErrInactiveAccount):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, account.ErrInviteNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type registerRequest struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	KyberPublicKey     string `json:"kyber_public_key"`
	DilithiumPublicKey string `json:"dilithium_public_key"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	acct, err := s.accounts.Register(r.Context(), account.RegisterInput{
		Username:           req.Username,
		Email:              req.Email,
		Password:           req.Password,
		KyberPublicKey:     req.KyberPublicKey,
		DilithiumPublicKey: req.DilithiumPublicKey,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id":     acct.ID,
		"username":    acct.Username,
		"invite_code": acct.InviteCode,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.accounts.Login(r.Context(), req.Username, req.Password); err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.accounts.SendOTP(r.Context(), req.Username); err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}
	if !decode(w, r, &req) {
		return
	}
	signed, acct, err := s.accounts.VerifyOTP(r.Context(), req.Username, req.OTP)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.setSessionCookie(w, signed)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"user_id":  acct.ID,
		"username": acct.Username,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := requestAccount(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":     acct.ID,
		"username":    acct.Username,
		"email":       acct.Email,
		"invite_code": acct.InviteCode,
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if !decode(w, r, &req) {
		return
	}
	target, err := s.accounts.Connect(r.Context(), requestAccount(r).ID, req.InviteCode)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Connected successfully",
		"username": target.Username,
		"user_id":  target.ID,
	})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.accounts.Connections(r.Context(), requestAccount(r).ID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": contacts})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	kyber, dilithium, err := s.accounts.PublicKeys(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"kyber_public_key":     kyber,
		"dilithium_public_key": dilithium,
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	me := domain.Identity(requestAccount(r).ID)
	peer := domain.Identity(chi.URLParam(r, "peerID"))
	recs, err := s.history.Between(r.Context(), me, peer)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": recs})
}
