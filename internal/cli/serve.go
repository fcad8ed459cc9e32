package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/wikisophy/pkg/adapters/http"
	"github.com/aretw0/wikisophy/pkg/session"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPServer builds the HTTP API server of app.
func NewHTTPServer(app *App) *httpadapter.Server {
	return httpadapter.NewServer(app.Engine,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetricsHandler(app.Metrics.Handler()),
		httpadapter.WithSessionOptions(session.WithLogger(app.Logger)),
	)
}

// Serve runs the HTTP API on port until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, port int) error {
	api := NewHTTPServer(app)

	if idle := app.Config.Server.SessionIdle; idle > 0 {
		api.Journeys.StartSweeper(ctx, sweepInterval(idle), idle)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting Wikisophy server", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received, stopping server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Open event streams keep connections busy until the deadline.
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("Wikisophy server stopped gracefully")
		return nil
	}
}

func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}
