// Package handlers implements the gateway's HTTP surface.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/besfeng23/kairos-github-gateway/internal/dedupe"
	"github.com/besfeng23/kairos-github-gateway/internal/httputil"
	"github.com/besfeng23/kairos-github-gateway/internal/logging"
	"github.com/besfeng23/kairos-github-gateway/internal/metrics"
	"github.com/besfeng23/kairos-github-gateway/internal/models"
	"github.com/besfeng23/kairos-github-gateway/internal/parser"
	"github.com/besfeng23/kairos-github-gateway/internal/signature"
)

// Forwarder pushes evidence events and recompute triggers upstream.
// Satisfied by kairos.Client; tests substitute fakes.
type Forwarder interface {
	IngestEvent(ctx context.Context, event *models.EvidenceEvent) error
	RecomputeFull(ctx context.Context) error
}

// WebhookHandler turns one GitHub delivery into zero or more forwarded
// evidence events. Request lifecycle: signature check, JSON decode, parse,
// repo filter, per-event dedupe-then-forward, single recompute.
type WebhookHandler struct {
	secret       string
	allowedRepos []string
	store        dedupe.Store
	forwarder    Forwarder
	logger       *logging.Logger
}

func NewWebhookHandler(secret string, allowedRepos []string, store dedupe.Store, forwarder Forwarder, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		secret:       secret,
		allowedRepos: allowedRepos,
		store:        store,
		forwarder:    forwarder,
		logger:       logger,
	}
}

type webhookResponse struct {
	OK        bool   `json:"ok"`
	Ingested  int    `json:"ingested"`
	Recompute bool   `json:"recompute"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type upstreamErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *WebhookHandler) repoAllowed(repo string) bool {
	if len(h.allowedRepos) == 0 {
		return true
	}
	if repo == "" {
		return false
	}
	for _, allowed := range h.allowedRepos {
		if repo == allowed {
			return true
		}
	}
	return false
}

// HandleWebhook serves POST /webhooks/github. The raw body bytes are read
// before anything else; signature verification runs against them before any
// JSON decoding happens.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	log := h.logger.WithContext(ctx)
	eventName := r.Header.Get("X-GitHub-Event")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read body")
		metrics.DeliveriesTotal.WithLabelValues(eventName, "400").Inc()
		return
	}
	defer r.Body.Close()

	if !signature.Verify(h.secret, body, r.Header.Get("X-Hub-Signature-256")) {
		log.Warn("webhook signature mismatch", logging.Event(eventName))
		metrics.SignatureFailures.Inc()
		metrics.DeliveriesTotal.WithLabelValues(eventName, "401").Inc()
		httputil.WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	if !json.Valid(body) {
		log.Warn("invalid json body", logging.Event(eventName))
		metrics.DeliveriesTotal.WithLabelValues(eventName, "400").Inc()
		httputil.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	parsed := parser.Parse(eventName, body)
	for _, msg := range parsed.Logs {
		log.Info("github: "+msg, logging.Event(eventName))
	}

	if !h.repoAllowed(parsed.RepoFullName) {
		log.Info("repo not allowed; skipping", logging.Repo(parsed.RepoFullName))
		metrics.DeliveriesTotal.WithLabelValues(eventName, "202").Inc()
		httputil.WriteJSON(w, http.StatusAccepted, webhookResponse{OK: true, Skipped: true, Reason: "repo_not_allowed"})
		return
	}

	if len(parsed.Events) == 0 {
		metrics.DeliveriesTotal.WithLabelValues(eventName, "200").Inc()
		httputil.WriteJSON(w, http.StatusOK, webhookResponse{OK: true})
		return
	}

	sent := 0
	for i := range parsed.Events {
		event := &parsed.Events[i]

		// The parser always sets a dedupe key; this guards the invariant.
		key := event.DedupeKeyValue()
		if key == "" {
			log.Warn("missing dedupe_key; skipping event",
				logging.EventType(string(event.EventType)),
				logging.NodeID(event.NodeID),
			)
			metrics.EventsDropped.WithLabelValues("missing_dedupe_key").Inc()
			continue
		}

		dup, err := h.store.IsDuplicateAndRecord(ctx, key)
		if err != nil {
			// Fail open: a transient store problem must not lose a
			// delivery; a possible duplicate forward is the lesser cost.
			log.Error("dedupe error; treating as not-duplicate", logging.DedupeKey(key), logging.Error(err))
			metrics.DedupeErrors.Inc()
			dup = false
		}
		if dup {
			log.Info("dedupe hit; skipping", logging.DedupeKey(key))
			metrics.DedupeHits.Inc()
			continue
		}

		start := time.Now()
		if err := h.forwarder.IngestEvent(ctx, event); err != nil {
			metrics.UpstreamErrors.WithLabelValues("ingest_event").Inc()
			h.respondUpstreamError(w, log, eventName, err)
			return
		}
		metrics.ForwardDuration.Observe(time.Since(start).Seconds())
		metrics.EventsIngested.WithLabelValues(string(event.EventType)).Inc()
		sent++
	}

	if sent > 0 {
		if err := h.forwarder.RecomputeFull(ctx); err != nil {
			metrics.UpstreamErrors.WithLabelValues("recompute").Inc()
			h.respondUpstreamError(w, log, eventName, err)
			return
		}
	}

	log.Info("delivery processed",
		logging.Event(eventName),
		logging.Repo(parsed.RepoFullName),
		slog.Int("ingested", sent),
	)
	metrics.DeliveriesTotal.WithLabelValues(eventName, "200").Inc()
	httputil.WriteJSON(w, http.StatusOK, webhookResponse{OK: true, Ingested: sent, Recompute: sent > 0})
}

func (h *WebhookHandler) respondUpstreamError(w http.ResponseWriter, log *slog.Logger, eventName string, err error) {
	log.Error("kairos upstream error", logging.Error(err))
	metrics.DeliveriesTotal.WithLabelValues(eventName, "502").Inc()
	httputil.WriteJSON(w, http.StatusBadGateway, upstreamErrorResponse{
		OK:      false,
		Error:   "kairos_upstream_error",
		Message: err.Error(),
	})
}

// Health serves GET /healthz.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Ready serves GET /readyz.
func (h *WebhookHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
