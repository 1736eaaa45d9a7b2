package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sealchat/internal/app"
)

const shutdownGrace = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay and API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(configPath)
			if err != nil {
				return err
			}
			wire, err := app.NewWire(cfg)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    cfg.Server.Listen,
				Handler: wire.Handler,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				wire.Log.Info().Str("listen", cfg.Server.Listen).Msg("server started")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				_ = wire.Shutdown()
				return err
			case <-ctx.Done():
			}

			wire.Log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				wire.Log.Error().Err(err).Msg("http shutdown")
			}
			return wire.Shutdown()
		},
	}
}
