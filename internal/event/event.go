package event

import (
	"encoding/json"
	"fmt"
)

// Host runtime event types the bridge reacts to. Anything else is ignored.
const (
	SessionCreated  = "session.created"
	SessionStatus   = "session.status"
	SessionIdle     = "session.idle"
	PermissionAsked = "permission.asked"
	SessionError    = "session.error"
)

// Event is one lifecycle event as published by the host runtime's bus.
type Event struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Decode parses a single event object. Only non-JSON input is an error;
// missing fields are left empty and read back as "".
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return e, nil
}

// String returns a property as a string. Missing, null and non-string
// values come back as "".
func (e Event) String(key string) string {
	s, _ := e.Properties[key].(string)
	return s
}

// SessionID returns the first non-empty property among keys. Field naming
// differs across event types ("id" vs "sessionID"), so callers list the
// names that apply in order of preference.
func (e Event) SessionID(keys ...string) string {
	for _, k := range keys {
		if v := e.String(k); v != "" {
			return v
		}
	}
	return ""
}

// StatusValue returns the session status carried by a session.status event.
// The plain form ("status": "running") is returned as is. OpenCode's object
// form ("status": {"type": "busy"}) is unwrapped, and its "busy" state is
// reported as "running" so a busy/idle turn reads as a prompt followed by
// completion.
func (e Event) StatusValue() string {
	switch v := e.Properties["status"].(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["type"].(string)
		if s == openCodeBusy {
			return "running"
		}
		return s
	default:
		return ""
	}
}

const openCodeBusy = "busy"
