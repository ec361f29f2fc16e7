// Package server exposes the bridge over HTTP so a thin host plugin can
// forward events with a POST instead of spawning a process per event.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/btouchard/peon-bridge/internal/event"
)

const maxEventSize = 1 << 20 // 1MB

// Handler consumes one decoded event.
type Handler interface {
	Handle(e event.Event)
}

// Options configures the HTTP router.
type Options struct {
	Token             string
	RequestsPerMinute int
}

// NewRouter builds the chi router serving /event, /health and /metrics.
func NewRouter(h Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(opts.RequestsPerMinute))
		r.Use(BearerAuth(opts.Token))
		r.Post("/event", handleEvent(h))
	})

	return r
}

func handleEvent(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventSize))
		if err != nil {
			http.Error(w, "request body too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}

		e, err := event.Decode(body)
		if err != nil {
			http.Error(w, "invalid event JSON", http.StatusBadRequest)
			return
		}

		h.Handle(e)
		w.WriteHeader(http.StatusAccepted)
	}
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("peon-bridge is listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
