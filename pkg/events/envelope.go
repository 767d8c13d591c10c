package events

import (
	"encoding/json"
	"time"
)

// Message attribute carrying the trigger type on published events.
const AttrEventType = "event_type"

// PayloadEnvelope is the stable message body published on the trigger topic.
// The trigger type travels as a message attribute so consumers can route
// without decoding the body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}
