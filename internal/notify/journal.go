package notify

import (
	"time"

	"github.com/btouchard/peon-bridge/internal/store"
)

// Journal persists emitted notifications.
// Defined consumer-side per Go convention.
type Journal interface {
	RecordNotification(r *store.NotificationRecord) error
}

// JournalNotifier records every payload it receives.
type JournalNotifier struct {
	journal Journal
	now     func() time.Time
}

// NewJournalNotifier creates a JournalNotifier writing to j.
func NewJournalNotifier(j Journal) *JournalNotifier {
	return &JournalNotifier{journal: j, now: time.Now}
}

func (n *JournalNotifier) Notify(p Payload) error {
	rec := &store.NotificationRecord{
		HookEventName: string(p.HookEventName),
		SessionID:     p.SessionID,
		CWD:           p.CWD,
		CreatedAt:     n.now(),
	}
	if err := n.journal.RecordNotification(rec); err != nil {
		return &DeliveryError{Stage: "journal", Err: err}
	}
	return nil
}
