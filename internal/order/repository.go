package order

import "context"

// Repository is the persistence port for orders. The sqlite subpackage is
// the production implementation; the ledger depends only on this interface.
//
// Conditional mutations (Assign, Accept, Reject, UpdateStatus) must be
// implemented as compare-and-set writes: the precondition is re-checked at
// write time, not just read time, so concurrent conflicting updates lose
// cleanly instead of overwriting each other.
type Repository interface {
	// Create persists a new order. The storage layer enforces uniqueness of
	// a non-empty gateway payment id; a duplicate insert fails with
	// ErrDuplicatePayment so the caller can fall back to the existing order.
	Create(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id string) (*Order, error)

	// GetByGatewayPaymentID returns the order carrying the given gateway
	// payment id, or ErrNotFound. Used as the idempotency pre-check.
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*Order, error)

	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	ListByStatus(ctx context.Context, statuses []Status) ([]*Order, error)
	ListByCourier(ctx context.Context, courierID string, statuses []Status) ([]*Order, error)
	// ListUnassigned returns orders with no courier in any of the given statuses.
	ListUnassigned(ctx context.Context, statuses []Status) ([]*Order, error)

	// UpdateStatus moves the order from the status observed at read time to
	// the new one, optionally recording payment collection. The write only
	// lands if the order is still in from at write time and, when courierID
	// is non-empty, still assigned to that courier. A lost race returns
	// ErrInvalidStatusTransition (status moved) or ErrNotAuthorizedForOrder
	// (courier reassigned); a missing order returns ErrNotFound.
	UpdateStatus(ctx context.Context, id string, from, to Status, courierID string, paymentCollected *bool) error

	// AssignCourier sets (or replaces) the assigned courier and forces the
	// status to processing in the same write.
	AssignCourier(ctx context.Context, id, courierID string) error

	// AcceptOrder atomically claims the order for courierID: the write only
	// succeeds if the order is unassigned or already assigned to courierID
	// at write time, and sets the status to confirmed. A lost race returns
	// ErrAlreadyAssigned.
	AcceptOrder(ctx context.Context, id, courierID string) error

	// RejectOrder clears the assignment and resets the status to pending,
	// only if the order is currently assigned to courierID; otherwise
	// ErrNotAuthorizedForOrder.
	RejectOrder(ctx context.Context, id, courierID string) error

	// IncrementDeliveries adds exactly one to the courier's completed
	// delivery counter.
	IncrementDeliveries(ctx context.Context, courierID string) error

	// NextOrderSeq returns the next value of the atomic order-number
	// sequence.
	NextOrderSeq(ctx context.Context) (int64, error)
}
