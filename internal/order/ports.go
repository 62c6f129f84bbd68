package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// CartEntry is one raw, untrusted entry from a submitted cart. Quantity may
// be absent or garbage; any client-supplied price is ignored.
type CartEntry struct {
	ProductID string
	Quantity  int
}

// GatewayClaim is the callback triple a client presents for a gateway-backed
// payment. All three values are untrusted until verified.
type GatewayClaim struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Assembler turns raw cart entries into priced line items and a pricing
// summary, resolving against the live catalog. Implemented by the pricing
// package.
type Assembler interface {
	Assemble(ctx context.Context, entries []CartEntry) ([]LineItem, PricingSummary, error)
}

// Verifier validates a gateway claim against the server-held secret and the
// remote payment record. It must not mutate any ledger state. Implemented by
// the payment package.
type Verifier interface {
	Verify(ctx context.Context, claim GatewayClaim, total decimal.Decimal) error
}

// EventKind names an order lifecycle event handed to the notification sink.
type EventKind string

const (
	EventPlaced          EventKind = "order_placed"
	EventConfirmed       EventKind = "order_confirmed"
	EventShipped         EventKind = "order_shipped"
	EventDelivered       EventKind = "order_delivered"
	EventPaymentReceived EventKind = "payment_received"
	EventAssigned        EventKind = "order_assigned"
)

// Sink receives lifecycle events for an already-persisted order and handles
// durable notification storage plus best-effort realtime push. It is
// fire-and-forget relative to the ledger: implementations never return an
// error and must not be able to roll back the operation that triggered them.
type Sink interface {
	OrderEvent(ctx context.Context, o *Order, kind EventKind)
}

// NopSink discards events; useful in tests and tooling.
type NopSink struct{}

func (NopSink) OrderEvent(context.Context, *Order, EventKind) {}
