package kairos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besfeng23/kairos-github-gateway/internal/models"
)

func testEvent() *models.EvidenceEvent {
	return &models.EvidenceEvent{
		EventTime:  "2024-05-01T10:00:00Z",
		EventType:  models.EventPROpened,
		Actor:      "github",
		Source:     "github",
		NodeID:     "PB-CORE-CHAT-001",
		Confidence: 0.05,
		Payload: map[string]interface{}{
			"repo":       "acme/widgets",
			"dedupe_key": "github.pr.opened:acme_widgets:42:PB-CORE-CHAT-001",
		},
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "   "})
	assert.Error(t, err)
}

func TestClient_IngestEvent(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Secret: "outbound-secret"})
	require.NoError(t, err)

	err = client.IngestEvent(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, "/functions/kairosIngestEvent", gotPath)
	assert.Equal(t, "Bearer outbound-secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "github.pr.opened", gotBody["event_type"])
	assert.Equal(t, "PB-CORE-CHAT-001", gotBody["node_id"])
}

func TestClient_RecomputeFull(t *testing.T) {
	var gotPath string
	var gotBody map[string]bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, client.RecomputeFull(context.Background()))
	assert.Equal(t, "/functions/kairosRecompute", gotPath)
	assert.True(t, gotBody["full"])
}

func TestClient_EndpointOverrides(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:        "http://unused.example.com",
		IngestEventURL: srv.URL + "/custom/ingest",
		RecomputeURL:   srv.URL + "/custom/recompute",
	})
	require.NoError(t, err)

	require.NoError(t, client.IngestEvent(context.Background(), testEvent()))
	assert.Equal(t, "/custom/ingest", gotPath)

	require.NoError(t, client.RecomputeFull(context.Background()))
	assert.Equal(t, "/custom/recompute", gotPath)
}

func TestClient_NoAuthHeaderWithoutSecret(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, client.RecomputeFull(context.Background()))
	assert.Empty(t, gotAuth)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Secret: "must-not-leak"})
	require.NoError(t, err)

	err = client.IngestEvent(context.Background(), testEvent())
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	assert.Contains(t, upstream.URL, "/functions/kairosIngestEvent")
	assert.LessOrEqual(t, len(upstream.Body), 1200, "error body must be truncated")
	assert.NotContains(t, err.Error(), "must-not-leak")
}

func TestClient_NetworkError(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	err = client.RecomputeFull(context.Background())
	require.Error(t, err)

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream), "network failures are not UpstreamError")
}
