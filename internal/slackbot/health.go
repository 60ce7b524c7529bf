package slackbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthServer provides HTTP health endpoints for Kubernetes health checks and a
// Prometheus scrape endpoint.
type HealthServer struct {
	bot    *Bot
	server *http.Server
	port   int
}

// NewHealthServer creates a new health server for the given bot.
func NewHealthServer(bot *Bot, port int) *HealthServer {
	return &HealthServer{
		bot:  bot,
		port: port,
	}
}

// Handler returns the health mux.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// /healthz - liveness check: checks if the bot is connected to Slack
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.bot.IsConnected() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("disconnected"))
		}
	})

	// /readyz - readiness check. Button clicks are served from memory, so the
	// bot is ready as soon as it exists even while reconnecting.
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(h.bot.metrics.Registry(), promhttp.HandlerOpts{}))
	return mux
}

// Start begins serving health endpoints. This should be called in a goroutine.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", h.port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.bot.logger.Info("starting health server", "port", h.port)

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		h.bot.logger.Info("shutting down health server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("health server error: %w", err)
	}
}
