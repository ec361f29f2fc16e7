package bridge

import (
	"log/slog"
	"sync"

	"github.com/btouchard/peon-bridge/internal/event"
	"github.com/btouchard/peon-bridge/internal/notify"
)

const (
	statusRunning = "running"
	statusIdle    = "idle"
)

// Bridge turns host runtime events into hook notifications. It infers
// prompt-submit and task-complete edges from the host's status signal and
// greets each session once.
//
// Handle may be called from several goroutines; events are processed one
// at a time so each one observes the state left by the previous.
type Bridge struct {
	notifier notify.Notifier
	cwd      string

	mu         sync.Mutex
	greeted    map[string]struct{}
	lastStatus string
}

// New creates a Bridge that reports cwd in every payload.
func New(n notify.Notifier, cwd string) *Bridge {
	if n == nil {
		panic("bridge: notifier must not be nil")
	}
	return &Bridge{
		notifier: n,
		cwd:      cwd,
		greeted:  make(map[string]struct{}),
	}
}

// Handle processes one event. Unknown event types are ignored.
func (b *Bridge) Handle(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Type {
	case event.SessionCreated:
		sid := e.SessionID("id")
		if _, ok := b.greeted[sid]; !ok {
			b.greeted[sid] = struct{}{}
			b.fire(notify.SessionStart, sid)
		}

	case event.SessionStatus:
		status := e.StatusValue()
		sid := e.SessionID("sessionID")

		if status == statusRunning && b.lastStatus != statusRunning {
			b.fire(notify.UserPromptSubmit, sid)
		}
		if status == statusIdle && b.lastStatus == statusRunning {
			b.fire(notify.Stop, sid)
		}
		b.lastStatus = status

	case event.SessionIdle:
		// Backstop for runtimes that go idle without a status transition.
		if b.lastStatus != statusIdle {
			b.fire(notify.Stop, e.SessionID("sessionID", "id"))
			b.lastStatus = statusIdle
		}

	case event.PermissionAsked:
		b.fire(notify.PermissionRequest, e.SessionID("sessionID"))

	case event.SessionError:
		b.fire(notify.Stop, e.SessionID("sessionID", "id"))

	default:
		slog.Debug("ignoring event", "type", e.Type)
	}
}

// LastStatus returns the most recently observed session status.
func (b *Bridge) LastStatus() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastStatus
}

// Greeted reports whether a SessionStart was already sent for sessionID.
func (b *Bridge) Greeted(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.greeted[sessionID]
	return ok
}

func (b *Bridge) fire(name notify.HookEvent, sessionID string) {
	p := notify.Payload{
		HookEventName: name,
		SessionID:     sessionID,
		CWD:           b.cwd,
	}
	if err := b.notifier.Notify(p); err != nil {
		slog.Debug("notification dropped",
			"hook_event_name", string(name),
			"session_id", sessionID,
			"error", err)
	}
}
