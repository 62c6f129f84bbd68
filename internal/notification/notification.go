// Package notification stores lifecycle notifications durably and pushes
// them to connected clients in real time. Push delivery is best-effort:
// failures are logged and swallowed, never surfaced to the operation that
// produced the event.
package notification

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a notification id does not resolve.
var ErrNotFound = errors.New("notification not found")

// Recipient classifies who a notification is addressed to.
type Recipient string

const (
	RecipientAdmin    Recipient = "admin"
	RecipientCustomer Recipient = "customer"
	RecipientCourier  Recipient = "courier"
)

// Notification is one stored notification row. Created once; only the Read
// flag is ever flipped afterwards.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Recipient   Recipient `json:"recipient"`
	RecipientID string    `json:"recipient_id,omitempty"`
	OrderID     string    `json:"order_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Data        Snapshot  `json:"data"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Snapshot is the structured payload frozen into the notification at
// creation time.
type Snapshot struct {
	OrderNumber  string `json:"order_number"`
	CustomerName string `json:"customer_name"`
	Amount       string `json:"amount"`
	ItemCount    int    `json:"item_count"`
}

// Store is the durable side of the sink.
type Store interface {
	Save(ctx context.Context, n *Notification) error
	ListForRecipient(ctx context.Context, class Recipient, recipientID string) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, class Recipient, recipientID string) (int64, error)
}

// Publisher is the realtime side of the sink. Publish errors are the
// caller's to swallow.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
