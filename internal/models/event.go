// Package models defines the evidence event wire format forwarded to Kairos.
package models

import (
	"fmt"
	"strings"
)

// EventType is the closed set of evidence event types the gateway emits.
type EventType string

const (
	EventPROpened                EventType = "github.pr.opened"
	EventPRMerged                EventType = "github.pr.merged"
	EventWorkflowLintPass        EventType = "github.workflow.lint_pass"
	EventWorkflowUnitPass        EventType = "github.workflow.unit_pass"
	EventWorkflowIntegrationPass EventType = "github.workflow.integration_pass"
	EventWorkflowE2EPass         EventType = "github.workflow.e2e_pass"
	EventReleasePublished        EventType = "github.release.published"
	EventDeployPreviewSuccess    EventType = "github.deploy.preview_success"
	EventDeployProdSuccess       EventType = "github.deploy.prod_success"
)

// Weights maps every event type to its fixed confidence. These values are
// policy, not derived data, and never change at runtime. The deploy.preview
// and release types are neutral until a deployment enables them explicitly.
var Weights = map[EventType]float64{
	EventPROpened:                0.05,
	EventWorkflowLintPass:        0.10,
	EventWorkflowUnitPass:        0.15,
	EventWorkflowIntegrationPass: 0.15,
	EventWorkflowE2EPass:         0.30,
	EventPRMerged:                0.35,
	EventDeployPreviewSuccess:    0.0,
	EventDeployProdSuccess:       0.50,
	EventReleasePublished:        0.0,
}

// EvidenceEvent is one confidence-weighted fact derived from a GitHub
// delivery, in Kairos wire shape. Immutable once built; NodeID is never
// empty (events without one are dropped before construction).
type EvidenceEvent struct {
	EventTime  string                 `json:"event_time"`
	EventType  EventType              `json:"event_type"`
	Actor      string                 `json:"actor"`
	Source     string                 `json:"source"`
	NodeID     string                 `json:"node_id"`
	Confidence float64                `json:"confidence"`
	Payload    map[string]interface{} `json:"payload"`
}

// DedupeKeyValue returns the dedupe key carried in the event payload, or ""
// if absent.
func (e *EvidenceEvent) DedupeKeyValue() string {
	if e.Payload == nil {
		return ""
	}
	if s, ok := e.Payload["dedupe_key"].(string); ok {
		return s
	}
	return ""
}

// DedupeKey builds the deterministic key identifying this evidence across
// GitHub redeliveries: eventType:repo:identity:nodeId. The repo has '/'
// replaced with '_' because store keys must not contain path separators;
// identity is the most specific of PR number, run id, or commit SHA, with
// "unknown" as the last resort.
func DedupeKey(eventType EventType, repo, identity, nodeID string) string {
	if repo == "" {
		repo = "unknown"
	}
	if identity == "" {
		identity = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s:%s", eventType, strings.ReplaceAll(repo, "/", "_"), identity, nodeID)
}
