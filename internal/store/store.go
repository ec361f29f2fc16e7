package store

import (
	"time"
)

// Store is the persistence interface for the notification journal.
// Defined at the consumer side per Go conventions.
type Store interface {
	RecordNotification(r *NotificationRecord) error
	ListNotifications(f NotificationFilter) ([]NotificationRecord, error)

	// Maintenance
	Cleanup(retentionDays int) (int64, error)
	Close() error
}

// NotificationRecord represents one emitted notification.
type NotificationRecord struct {
	ID            int64
	HookEventName string
	SessionID     string
	CWD           string
	CreatedAt     time.Time
}

// NotificationFilter specifies criteria for listing notifications.
type NotificationFilter struct {
	SessionID     string
	HookEventName string
	Limit         int
	Since         time.Time
}
