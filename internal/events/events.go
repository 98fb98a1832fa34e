package events

import (
	"encoding/json"
	"time"
)

// Event types the UI subscribes to.
const (
	TypePing              = "ping"
	TypeRunStarted        = "run_started"
	TypeRunCompleted      = "run_completed"
	TypeObservationsAdded = "observations_added"
	TypeConfigSaved       = "config_saved"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent builds the envelope; the SSE handler marshals it once per
// delivery so publishers stay free of encoding concerns.
func MakeEvent(reqID, typ string, v int, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
}

// Encode renders the envelope as the JSON line the SSE stream carries.
func (e Event) Encode() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// RunCompleted is the payload of a run_completed event.
type RunCompleted struct {
	RunID     int64  `json:"run_id"`
	Status    string `json:"status"`
	Forecasts int    `json:"forecasts"`
	Scores    int    `json:"scores"`
	Failures  int    `json:"failures"`
}
