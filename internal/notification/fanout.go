package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

// Fanout implements order.Sink: it writes one durable notification per
// recipient, then best-effort publishes the same payload to the realtime
// channel. A dead transport degrades to store-only delivery; the ledger
// operation that triggered the event is never failed or rolled back.
type Fanout struct {
	store Store
	pub   Publisher
	now   func() time.Time
}

// NewFanout builds the fan-out sink. pub may be nil for store-only delivery.
func NewFanout(store Store, pub Publisher) *Fanout {
	return &Fanout{store: store, pub: pub, now: time.Now}
}

// target is one (recipient class, recipient id) address for an event.
type target struct {
	class Recipient
	id    string
	title string
	msg   string
}

// OrderEvent fans the event out to every recipient the kind addresses.
func (f *Fanout) OrderEvent(ctx context.Context, o *order.Order, kind order.EventKind) {
	for _, t := range targets(o, kind) {
		n := &Notification{
			ID:          uuid.NewString(),
			Type:        string(kind),
			Recipient:   t.class,
			RecipientID: t.id,
			OrderID:     o.ID,
			Title:       t.title,
			Message:     t.msg,
			Data: Snapshot{
				OrderNumber:  o.OrderNumber,
				CustomerName: o.Shipping.Name,
				Amount:       o.Pricing.Total.String(),
				ItemCount:    len(o.Items),
			},
			CreatedAt: f.now().UTC(),
		}

		if err := f.store.Save(ctx, n); err != nil {
			// Durable storage failing is worth a loud log, but the order
			// operation has already committed and must not be failed here.
			slog.ErrorContext(ctx, "failed to store notification",
				"order_id", o.ID, "kind", string(kind), "error", err)
			continue
		}
		f.push(ctx, n)
	}
}

// push publishes to notify:<class> or notify:<class>:<id>. Errors are
// swallowed after logging; realtime delivery is fire-and-forget.
func (f *Fanout) push(ctx context.Context, n *Notification) {
	if f.pub == nil {
		return
	}
	channel := fmt.Sprintf("notify:%s", n.Recipient)
	if n.RecipientID != "" {
		channel = fmt.Sprintf("notify:%s:%s", n.Recipient, n.RecipientID)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode notification push", "id", n.ID, "error", err)
		return
	}
	if err := f.pub.Publish(ctx, channel, payload); err != nil {
		slog.WarnContext(ctx, "notification push failed", "channel", channel, "id", n.ID, "error", err)
	}
}

// targets maps an event kind to its recipients and human-readable copy.
func targets(o *order.Order, kind order.EventKind) []target {
	num := o.OrderNumber
	switch kind {
	case order.EventPlaced:
		return []target{
			{RecipientAdmin, "", "New order", fmt.Sprintf("Order %s has been placed", num)},
			{RecipientCustomer, o.CustomerID, "Order placed", fmt.Sprintf("Your order %s has been placed", num)},
		}
	case order.EventConfirmed:
		return []target{
			{RecipientCustomer, o.CustomerID, "Order confirmed", fmt.Sprintf("Your order %s has been confirmed", num)},
		}
	case order.EventShipped:
		return []target{
			{RecipientCustomer, o.CustomerID, "Order shipped", fmt.Sprintf("Your order %s is on its way", num)},
		}
	case order.EventDelivered:
		return []target{
			{RecipientCustomer, o.CustomerID, "Order delivered", fmt.Sprintf("Your order %s has been delivered", num)},
			{RecipientAdmin, "", "Order delivered", fmt.Sprintf("Order %s has been delivered", num)},
		}
	case order.EventPaymentReceived:
		return []target{
			{RecipientAdmin, "", "Payment received", fmt.Sprintf("Payment collected for order %s", num)},
		}
	case order.EventAssigned:
		return []target{
			{RecipientCourier, o.AssignedCourierID, "Order assigned", fmt.Sprintf("Order %s has been assigned to you", num)},
		}
	}
	return nil
}
