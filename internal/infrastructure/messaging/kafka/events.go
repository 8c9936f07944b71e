// Package kafka publishes run events for external monitoring collaborators:
// identity-collision warnings and per-run quality reports.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type names carried in the envelope.
const (
	EventTypeIdentityCollision = "identity.collision_warning"
	EventTypeRunQuality        = "run.quality_report"
)

// EventEnvelope standardizes event messages on the wire.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// newEnvelope wraps a payload.  Marshal errors cannot happen for the event
// types this package owns, but are surfaced anyway.
func newEnvelope(eventType string, payload interface{}) (EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        "resolve",
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       raw,
	}, nil
}
