package logging

import "log/slog"

// Common field names for consistent logging across the gateway.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldEvent     = "event"
	FieldEventType = "event_type"
	FieldNodeID    = "node_id"
	FieldDedupeKey = "dedupe_key"
	FieldRepo      = "repo"
	FieldStatus    = "status"
	FieldURL       = "url"
	FieldError     = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Event returns a slog attribute for the GitHub event name.
func Event(name string) slog.Attr {
	return slog.String(FieldEvent, name)
}

// EventType returns a slog attribute for the evidence event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// NodeID returns a slog attribute for the resolved work-item id.
func NodeID(id string) slog.Attr {
	return slog.String(FieldNodeID, id)
}

// DedupeKey returns a slog attribute for a dedupe key.
func DedupeKey(key string) slog.Attr {
	return slog.String(FieldDedupeKey, key)
}

// Repo returns a slog attribute for the repository full name.
func Repo(name string) slog.Attr {
	return slog.String(FieldRepo, name)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
