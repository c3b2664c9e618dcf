package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/besfeng23/kairos-github-gateway/internal/handlers"
	"github.com/besfeng23/kairos-github-gateway/internal/middleware"
)

// NewRouter constructs a ServeMux with the gateway routes registered.
// No body-parsing middleware sits in front of the webhook route: the handler
// must see the exact raw request bytes for signature verification.
func NewRouter(h *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/webhooks/github", h.HandleWebhook)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
