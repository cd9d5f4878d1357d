package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. Guests are identified by their cart session.
type ActorRef struct {
	SessionID string `json:"sessionId,omitempty"`
	Source    string `json:"source"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
