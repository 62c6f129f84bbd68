package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id            TEXT PRIMARY KEY,
    type          TEXT NOT NULL,
    recipient     TEXT NOT NULL,
    recipient_id  TEXT NOT NULL DEFAULT '',
    order_id      TEXT NOT NULL,
    title         TEXT NOT NULL,
    message       TEXT NOT NULL,
    data          TEXT NOT NULL,
    read          INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient
    ON notifications(recipient, recipient_id, created_at);
`

// SQLiteStore is the durable Store implementation, sharing the order
// database handle.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("notification: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("notification: marshal snapshot: %w", err)
	}
	const q = `
		INSERT INTO notifications (id, type, recipient, recipient_id, order_id, title, message, data, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	_, err = s.db.ExecContext(ctx, q,
		n.ID, n.Type, string(n.Recipient), n.RecipientID, n.OrderID,
		n.Title, n.Message, string(data), n.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("notification: save %q: %w", n.ID, err)
	}
	return nil
}

// ListForRecipient returns notifications for a recipient class, newest
// first. Class-wide notifications (empty recipient_id) are visible to every
// member of the class.
func (s *SQLiteStore) ListForRecipient(ctx context.Context, class Recipient, recipientID string) ([]*Notification, error) {
	const q = `
		SELECT id, type, recipient, recipient_id, order_id, title, message, data, read, created_at
		FROM   notifications
		WHERE  recipient = ? AND (recipient_id = '' OR recipient_id = ?)
		ORDER  BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, string(class), recipientID)
	if err != nil {
		return nil, fmt.Errorf("notification: list for %s/%s: %w", class, recipientID, err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var recipient, data, createdAt string
		var read int
		if err := rows.Scan(&n.ID, &n.Type, &recipient, &n.RecipientID, &n.OrderID,
			&n.Title, &n.Message, &data, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("notification: scan: %w", err)
		}
		n.Recipient = Recipient(recipient)
		n.Read = read != 0
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("notification: unmarshal snapshot of %q: %w", n.ID, err)
		}
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("notification: bad created_at %q: %w", createdAt, err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("notification: mark read %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UnreadCount(ctx context.Context, class Recipient, recipientID string) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM   notifications
		WHERE  recipient = ? AND (recipient_id = '' OR recipient_id = ?) AND read = 0`
	var n int64
	if err := s.db.QueryRowContext(ctx, q, string(class), recipientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("notification: unread count for %s/%s: %w", class, recipientID, err)
	}
	return n, nil
}
