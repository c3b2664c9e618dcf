package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/besfeng23/kairos-github-gateway/internal/dedupe"
	"github.com/besfeng23/kairos-github-gateway/internal/handlers"
	"github.com/besfeng23/kairos-github-gateway/internal/kairos"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	client, err := kairos.New(kairos.Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("kairos.New: %v", err)
	}
	h := handlers.NewWebhookHandler("secret", nil, dedupe.NewMemoryStore(0), client, nil)
	return NewRouter(h)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing; request id middleware not wired")
	}
}

func TestRouter_Ready(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rr.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rr.Code)
	}
}

func TestRouter_WebhookRejectsUnsigned(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhooks/github", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unsigned POST /webhooks/github = %d, want 401", rr.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rr.Code)
	}
}
