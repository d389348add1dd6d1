package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/httpserver"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Address = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides C360_HTTP_ADDR)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *app) serve(ctx context.Context) error {
	logger := a.logger
	startedAt := time.Now().UTC()

	srv := httpserver.New(httpserver.Config{
		Address:          a.cfg.Server.Address,
		BasePath:         a.cfg.Server.BasePath,
		Service:          a.service(),
		Logger:           logger,
		CSRFCookieName:   a.cfg.Security.CSRFCookieName,
		CSRFHeaderName:   a.cfg.Security.CSRFHeaderName,
		CSRFCookieSecure: a.cfg.Security.CSRFCookieSecure,
		ReadTimeout:      a.cfg.Server.ReadTimeout,
		WriteTimeout:     a.cfg.Server.WriteTimeout,
		IdleTimeout:      a.cfg.Server.IdleTimeout,
		StartedAt:        startedAt,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("dashboard server listening",
		zap.String("addr", a.cfg.Server.Address),
		zap.String("base_path", a.cfg.Server.BasePath),
		zap.String("environment", a.cfg.Environment),
		zap.String("catalog", a.catalog.Title),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "http server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down dashboard server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "graceful shutdown failed", err)
	}
	return nil
}
