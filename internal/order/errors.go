package order

import "errors"

// Sentinel errors surfaced by the Ledger. The HTTP layer maps these onto
// status codes; callers must not retry any of them — they describe a request
// that will fail the same way again.
var (
	// ErrNotFound means the order does not exist (distinct from Forbidden).
	ErrNotFound = errors.New("order not found")

	// ErrForbidden means the caller's verified identity does not own or is
	// not assigned to the order it tried to touch.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatusTransition means the (current state, actor role,
	// requested state) triple is not in the transition table.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrAlreadyAssigned means a courier tried to accept an order that is
	// already assigned to a different courier.
	ErrAlreadyAssigned = errors.New("order already assigned to another courier")

	// ErrNotAuthorizedForOrder means a courier tried to reject an order that
	// is not assigned to them.
	ErrNotAuthorizedForOrder = errors.New("order not assigned to this courier")

	// ErrDuplicatePayment is returned by the repository when an insert hits
	// the unique gateway-payment-id constraint. The ledger treats it as a
	// signal to return the already-persisted order.
	ErrDuplicatePayment = errors.New("order with this gateway payment id already exists")
)
