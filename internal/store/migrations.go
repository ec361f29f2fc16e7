package store

// migrations are applied in order; index i brings the schema to version i+1.
var migrations = []string{
	`CREATE TABLE notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hook_event_name TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		cwd TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_notifications_session ON notifications(session_id);
	CREATE INDEX idx_notifications_created ON notifications(created_at);`,
}
