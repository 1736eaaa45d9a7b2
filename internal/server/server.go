package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sealchat/internal/relay"
	"sealchat/internal/services/account"
	"sealchat/internal/services/history"
	"sealchat/internal/token"
)

// Options collects the collaborators the HTTP surface exposes.
type Options struct {
	Accounts *account.Service
	History  *history.Service
	Engine   *relay.Engine
	Registry *relay.Registry
	Tokens   *token.Issuer

	// Metrics is the handler mounted at /metrics.
	Metrics http.Handler
	// AllowedOrigins restricts CORS and websocket origins. Empty allows any
	// origin (development mode).
	AllowedOrigins []string
	// IdleProbe is handed to each websocket session; zero selects the
	// default.
	IdleProbe time.Duration
	// CookieTTL bounds the access_token cookie lifetime. It should match the
	// token TTL.
	CookieTTL time.Duration

	Log zerolog.Logger
}

// Server routes HTTP traffic to the services and hands authenticated
// websocket connections to the relay.
type Server struct {
	accounts  *account.Service
	history   *history.Service
	engine    *relay.Engine
	reg       *relay.Registry
	tokens    *token.Issuer
	metrics   http.Handler
	origins   []string
	idleProbe time.Duration
	cookieTTL time.Duration
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// New constructs the server from opts.
func New(opts Options) *Server {
	s := &Server{
		accounts:  opts.Accounts,
		history:   opts.History,
		engine:    opts.Engine,
		reg:       opts.Registry,
		tokens:    opts.Tokens,
		metrics:   opts.Metrics,
		origins:   opts.AllowedOrigins,
		idleProbe: opts.IdleProbe,
		cookieTTL: opts.CookieTTL,
		log:       opts.Log.With().Str("component", "server").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/send-otp", s.handleSendOTP)
			r.Post("/verify-otp", s.handleVerifyOTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Route("/user", func(r chi.Router) {
				r.Get("/me", s.handleMe)
				r.Post("/connect", s.handleConnect)
				r.Get("/connections", s.handleConnections)
				r.Get("/keys/{userID}", s.handleKeys)
			})
			r.Get("/messages/{peerID}", s.handleMessages)
		})

		// The websocket endpoint authenticates after the upgrade so the
		// rejection can reach the client as a status frame.
		r.Get("/ws/chat", s.handleChat)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) originAllowed(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) corsOrigins() []string {
	if len(s.origins) == 0 {
		return []string{"*"}
	}
	return s.origins
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
