// Package httpapi exposes the bot's HTTP surface: the Telegram webhook
// endpoint, liveness probes and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "digitalmarketingacademy-bot"

// UpdateHandler processes one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// NewRouter builds the router. webhookPath is token-scoped so only Telegram
// can hit it.
func NewRouter(webhookPath string, updates UpdateHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "✅ Bot running — %s", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": serviceName})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Post(webhookPath, func(w http.ResponseWriter, req *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			logger.Warn("webhook decode failed", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		updates.HandleUpdate(req.Context(), update)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// NewServer wraps the router in an http.Server with sane timeouts. Webhook
// handling can wait on the sheet delivery, hence the generous write bound.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
