package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/mail"
	"sealchat/internal/metrics"
	"sealchat/internal/relay"
	"sealchat/internal/server"
	"sealchat/internal/services/account"
	"sealchat/internal/services/history"
	"sealchat/internal/store"
	"sealchat/internal/token"
)

// Wire bundles the constructed dependency graph.
type Wire struct {
	Log      zerolog.Logger
	Store    *store.Bolt
	Accounts *account.Service
	History  *history.Service
	Registry *relay.Registry
	Engine   *relay.Engine
	Handler  http.Handler

	cancel context.CancelFunc
}

// NewWire builds the full graph from cfg. The returned Wire owns the store
// and the background goroutines; release them with Shutdown.
func NewWire(cfg Config) (*Wire, error) {
	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	var mailer domain.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		mailer = mail.NewLogMailer(log)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.NewRelay(promReg)

	// baseCtx bounds background work (persistence, mail) to the wire's
	// lifetime rather than to any single request or connection.
	baseCtx, cancel := context.WithCancel(context.Background())

	tokens := token.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
	accounts := account.New(baseCtx, db, mailer, tokens, cfg.OTPTTL(), log)
	hist := history.New(db, log)

	pairs := relay.NewPairing()
	reg := relay.NewRegistry(pairs, met, log)
	pairs.SetPresence(reg.IsOnline)
	engine := relay.NewEngine(baseCtx, reg, pairs, db, met, log)

	srv := server.New(server.Options{
		Accounts:       accounts,
		History:        hist,
		Engine:         engine,
		Registry:       reg,
		Tokens:         tokens,
		Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IdleProbe:      cfg.IdleProbe(),
		CookieTTL:      cfg.TokenTTL(),
		Log:            log,
	})

	return &Wire{
		Log:      log,
		Store:    db,
		Accounts: accounts,
		History:  hist,
		Registry: reg,
		Engine:   engine,
		Handler:  srv.Router(),
		cancel:   cancel,
	}, nil
}

// Shutdown drains the graph: evict live connections, wait for in-flight
// persistence and mail, then close the store.
func (w *Wire) Shutdown() error {
	w.Registry.EvictAll()
	w.Engine.Wait()
	w.Accounts.Wait()
	w.cancel()
	return w.Store.Close()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
