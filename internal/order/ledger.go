package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Ledger is the order service: creation through the pricing/verification
// pipeline, the actor-gated state machine, and courier assignment.
type Ledger struct {
	repo      Repository
	assembler Assembler
	verifier  Verifier
	sink      Sink
	authz     Authorizer
	now       func() time.Time
}

// NewLedger wires the ledger. sink may be NopSink{}; verifier is only
// consulted for gateway-backed payment methods.
func NewLedger(repo Repository, assembler Assembler, verifier Verifier, sink Sink) *Ledger {
	return &Ledger{
		repo:      repo,
		assembler: assembler,
		verifier:  verifier,
		sink:      sink,
		authz:     RoleAuthorizer{},
		now:       time.Now,
	}
}

// CreateInput carries everything a checkout submits. Any totals the client
// included never reach the ledger; pricing is recomputed server-side.
type CreateInput struct {
	Customer Actor
	Items    []CartEntry
	Shipping ShippingInfo
	Method   PaymentMethod
	Claim    GatewayClaim
}

// Create runs the order creation pipeline: price the cart, verify the
// gateway payment if there is one, persist exactly once, fan out
// notifications. Nothing is written unless every check passes.
//
// Idempotency: for gateway-backed payments, a lookup by gateway payment id
// short-circuits to the existing order. The unique constraint in the store
// is the actual enforcement under concurrency; the pre-read is an
// optimization, and a constraint violation on insert falls back to a
// re-read of the winner.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.Method.GatewayBacked() {
		if existing, err := l.repo.GetByGatewayPaymentID(ctx, in.Claim.PaymentID); err == nil {
			slog.InfoContext(ctx, "duplicate checkout collapsed",
				"order_id", existing.ID, "gateway_payment_id", in.Claim.PaymentID)
			return existing, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	items, pricing, err := l.assembler.Assemble(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	payment := PaymentInfo{Method: in.Method, Status: PaymentPending}
	if in.Method.GatewayBacked() {
		if err := l.verifier.Verify(ctx, in.Claim, pricing.Total); err != nil {
			return nil, err
		}
		payment.GatewayOrderID = in.Claim.OrderID
		payment.GatewayPaymentID = in.Claim.PaymentID
		payment.GatewaySignature = in.Claim.Signature
		payment.Status = PaymentCompleted
	}

	seq, err := l.repo.NextOrderSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("mint order number: %w", err)
	}
	now := l.now().UTC()
	o := &Order{
		ID:          uuid.NewString(),
		OrderNumber: fmt.Sprintf("ORD-%d-%d", now.Unix(), seq),
		CustomerID:  in.Customer.ID,
		Items:       items,
		Shipping:    in.Shipping,
		Payment:     payment,
		Pricing:     pricing,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			// Lost the insert race; the winner's order is the order.
			return l.repo.GetByGatewayPaymentID(ctx, in.Claim.PaymentID)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", o.ID, "order_number", o.OrderNumber,
		"customer_id", o.CustomerID, "total", o.Pricing.Total.String(),
		"method", string(o.Payment.Method))

	l.sink.OrderEvent(ctx, o, EventPlaced)
	return o, nil
}

// Get returns a single order, enforcing that the actor may read it.
func (l *Ledger) Get(ctx context.Context, actor Actor, id string) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authz.Authorize(actor, o, OpRead); err != nil {
		return nil, err
	}
	return o, nil
}

// ListForCustomer returns the actor's own orders.
func (l *Ledger) ListForCustomer(ctx context.Context, customer Actor) ([]*Order, error) {
	return l.repo.ListByCustomer(ctx, customer.ID)
}

// ListByStatus is an admin view across all customers.
func (l *Ledger) ListByStatus(ctx context.Context, statuses []Status) ([]*Order, error) {
	return l.repo.ListByStatus(ctx, statuses)
}

// CourierAssigned returns the courier's active orders.
func (l *Ledger) CourierAssigned(ctx context.Context, courier Actor) ([]*Order, error) {
	return l.repo.ListByCourier(ctx, courier.ID, AssignedView)
}

// CourierCompleted returns the courier's finished deliveries.
func (l *Ledger) CourierCompleted(ctx context.Context, courier Actor) ([]*Order, error) {
	return l.repo.ListByCourier(ctx, courier.ID, CompletedView)
}

// CourierAvailable returns unassigned orders open for acceptance.
func (l *Ledger) CourierAvailable(ctx context.Context) ([]*Order, error) {
	return l.repo.ListUnassigned(ctx, AvailableView)
}

// AdminUpdateStatus moves the order to any status the admin table allows and
// fans out the matching event.
func (l *Ledger) AdminUpdateStatus(ctx context.Context, admin Actor, id string, to Status) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authz.Authorize(admin, o, OpAdminUpdate); err != nil {
		return nil, err
	}
	if err := CanTransition(o.Status, RoleAdmin, to); err != nil {
		return nil, err
	}
	if err := l.repo.UpdateStatus(ctx, id, o.Status, to, "", nil); err != nil {
		return nil, err
	}
	o.Status = to
	o.UpdatedAt = l.now().UTC()

	if kind, ok := statusEvent(to); ok {
		l.sink.OrderEvent(ctx, o, kind)
	}
	return o, nil
}

// AssignCourier assigns (or reassigns) a courier. As a side effect the order
// moves to processing and the courier is notified.
func (l *Ledger) AssignCourier(ctx context.Context, admin Actor, id, courierID string) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authz.Authorize(admin, o, OpAssign); err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidStatusTransition, o.Status)
	}
	if err := l.repo.AssignCourier(ctx, id, courierID); err != nil {
		return nil, err
	}
	o.AssignedCourierID = courierID
	o.Status = StatusProcessing
	o.UpdatedAt = l.now().UTC()

	l.sink.OrderEvent(ctx, o, EventAssigned)
	return o, nil
}

// CourierUpdateStatus lets the assigned courier drive the delivery leg.
// Delivered accepts a payment-collected flag (cash on delivery settled at
// the door) and bumps the courier's delivery counter by exactly one.
func (l *Ledger) CourierUpdateStatus(ctx context.Context, courier Actor, id string, to Status, paymentCollected bool) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authz.Authorize(courier, o, OpCourierDrive); err != nil {
		return nil, err
	}
	if err := CanTransition(o.Status, RoleCourier, to); err != nil {
		return nil, err
	}

	var collected *bool
	if to == StatusDelivered {
		collected = &paymentCollected
	}
	// The write re-checks both the status and the assignment, so a concurrent
	// admin transition or reassignment makes this update lose cleanly.
	if err := l.repo.UpdateStatus(ctx, id, o.Status, to, courier.ID, collected); err != nil {
		return nil, err
	}
	o.Status = to
	o.UpdatedAt = l.now().UTC()

	if to == StatusDelivered {
		o.PaymentCollected = paymentCollected
		if err := l.repo.IncrementDeliveries(ctx, courier.ID); err != nil {
			// The transition already happened; the counter is advisory.
			slog.ErrorContext(ctx, "failed to increment delivery counter",
				"courier_id", courier.ID, "order_id", id, "error", err)
		}
		l.sink.OrderEvent(ctx, o, EventDelivered)
		if paymentCollected {
			l.sink.OrderEvent(ctx, o, EventPaymentReceived)
		}
	} else {
		// on-the-way rides the shipped notification kind.
		l.sink.OrderEvent(ctx, o, EventShipped)
	}
	return o, nil
}

// AcceptOrder claims an unassigned (or already self-assigned) order for the
// courier and confirms it. The repository write is conditional, so two
// racing accepts resolve to one winner and one ErrAlreadyAssigned.
func (l *Ledger) AcceptOrder(ctx context.Context, courier Actor, id string) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authz.Authorize(courier, o, OpAccept); err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidStatusTransition, o.Status)
	}
	if o.AssignedCourierID != "" && o.AssignedCourierID != courier.ID {
		return nil, ErrAlreadyAssigned
	}
	if err := l.repo.AcceptOrder(ctx, id, courier.ID); err != nil {
		return nil, err
	}
	o.AssignedCourierID = courier.ID
	o.Status = StatusConfirmed
	o.UpdatedAt = l.now().UTC()

	l.sink.OrderEvent(ctx, o, EventConfirmed)
	return o, nil
}

// RejectOrder releases an order back to the pool: assignment cleared, status
// reset to pending. Only the courier currently holding the order may reject.
func (l *Ledger) RejectOrder(ctx context.Context, courier Actor, id string) (*Order, error) {
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.AssignedCourierID != courier.ID {
		return nil, ErrNotAuthorizedForOrder
	}
	if err := l.repo.RejectOrder(ctx, id, courier.ID); err != nil {
		return nil, err
	}
	o.AssignedCourierID = ""
	o.Status = StatusPending
	o.UpdatedAt = l.now().UTC()
	return o, nil
}

// statusEvent maps admin-driven statuses onto notification events. Statuses
// without a customer-facing event (processing, pending, cancelled) fan out
// nothing.
func statusEvent(s Status) (EventKind, bool) {
	switch s {
	case StatusConfirmed:
		return EventConfirmed, true
	case StatusShipped:
		return EventShipped, true
	case StatusDelivered:
		return EventDelivered, true
	}
	return "", false
}
