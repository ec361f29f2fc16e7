package notify

import (
	"errors"
	"fmt"
)

// HookEvent names the hook a payload represents, using the vocabulary the
// downstream script already understands.
type HookEvent string

const (
	SessionStart      HookEvent = "SessionStart"
	UserPromptSubmit  HookEvent = "UserPromptSubmit"
	Stop              HookEvent = "Stop"
	PermissionRequest HookEvent = "PermissionRequest"
)

// Payload is the JSON object written to the notification script's stdin.
type Payload struct {
	HookEventName HookEvent `json:"hook_event_name"`
	SessionID     string    `json:"session_id"`
	CWD           string    `json:"cwd"`
}

// Notifier is a best-effort sink for payloads. Callers are free to drop
// the returned error; delivery is never guaranteed.
type Notifier interface {
	Notify(p Payload) error
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(p Payload) error

// Notify calls f(p).
func (f NotifierFunc) Notify(p Payload) error {
	return f(p)
}

// DeliveryError reports which stage of a delivery failed.
type DeliveryError struct {
	Stage string // "marshal", "spawn", "write", "journal"
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification delivery failed at %s: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Hub dispatches payloads to multiple notifiers.
type Hub struct {
	notifiers []Notifier
}

// NewHub creates a Hub with the given notifiers. Nil entries are skipped.
func NewHub(notifiers ...Notifier) *Hub {
	h := &Hub{}
	for _, n := range notifiers {
		if n != nil {
			h.notifiers = append(h.notifiers, n)
		}
	}
	return h
}

// Notify sends p to every registered notifier in order and joins the
// failures. A failing notifier does not stop the ones after it.
func (h *Hub) Notify(p Payload) error {
	var errs []error
	for _, n := range h.notifiers {
		if err := n.Notify(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
