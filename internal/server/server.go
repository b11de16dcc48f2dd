// Package server exposes the resync engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mgpai22/subsync/internal/config"
	"github.com/mgpai22/subsync/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the API routes.
func NewRouter(cfg config.ServerConfig, logger *logging.Logger) *chi.Mux {
	if logger == nil {
		logger = logging.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	h := &handler{maxBodyBytes: cfg.MaxBodyBytes, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Post("/resync", h.resync)
	})

	return r
}

// ListenAndServe serves the API on cfg.Addr until ctx is cancelled, then
// drains in-flight requests.
func ListenAndServe(ctx context.Context, cfg config.ServerConfig, logger *logging.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
