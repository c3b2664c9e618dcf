package models

import "testing"

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		repo      string
		identity  string
		nodeID    string
		want      string
	}{
		{
			name:      "repo slash sanitized",
			eventType: EventPROpened,
			repo:      "acme/widgets",
			identity:  "42",
			nodeID:    "PB-CORE-CHAT-001",
			want:      "github.pr.opened:acme_widgets:42:PB-CORE-CHAT-001",
		},
		{
			name:      "missing repo and identity",
			eventType: EventPRMerged,
			repo:      "",
			identity:  "",
			nodeID:    "PB-CORE-CHAT-001",
			want:      "github.pr.merged:unknown:unknown:PB-CORE-CHAT-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeKey(tt.eventType, tt.repo, tt.identity, tt.nodeID)
			if got != tt.want {
				t.Errorf("DedupeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeights_FixedValues(t *testing.T) {
	want := map[EventType]float64{
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

	if len(Weights) != len(want) {
		t.Fatalf("Weights has %d entries, want %d", len(Weights), len(want))
	}
	for eventType, confidence := range want {
		if Weights[eventType] != confidence {
			t.Errorf("Weights[%s] = %v, want %v", eventType, Weights[eventType], confidence)
		}
	}
}

func TestDedupeKeyValue(t *testing.T) {
	e := &EvidenceEvent{Payload: map[string]interface{}{"dedupe_key": "a:b:c:d"}}
	if got := e.DedupeKeyValue(); got != "a:b:c:d" {
		t.Errorf("DedupeKeyValue() = %q, want %q", got, "a:b:c:d")
	}

	empty := &EvidenceEvent{}
	if got := empty.DedupeKeyValue(); got != "" {
		t.Errorf("DedupeKeyValue() on empty payload = %q, want empty", got)
	}
}
