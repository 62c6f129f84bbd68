package order

import "fmt"

// Role identifies which class of actor is driving a transition.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleCourier  Role = "courier"
)

// transitionKey addresses one cell of the transition table.
type transitionKey struct {
	from Status
	role Role
	to   Status
}

// transitions is the closed set of legal status transitions. Keyed by
// (current state, actor role, requested state); anything absent is illegal.
// Built once at init so every operation consults the same table instead of
// scattering string comparisons.
var transitions = buildTransitions()

func buildTransitions() map[transitionKey]struct{} {
	t := make(map[transitionKey]struct{})

	for _, from := range AllStatuses {
		if from.Terminal() {
			continue
		}
		// Admins may drive an order to any state, including cancellation.
		for _, to := range AllStatuses {
			t[transitionKey{from, RoleAdmin, to}] = struct{}{}
		}
		// Couriers only move orders along the delivery leg.
		t[transitionKey{from, RoleCourier, StatusOnTheWay}] = struct{}{}
		t[transitionKey{from, RoleCourier, StatusDelivered}] = struct{}{}
	}
	return t
}

// CanTransition reports whether role may move an order from one status to
// another. Terminal states reject everything; unknown target statuses are
// rejected before the table lookup.
func CanTransition(from Status, role Role, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, to)
	}
	if _, ok := transitions[transitionKey{from, role, to}]; !ok {
		return fmt.Errorf("%w: %s may not move %s -> %s", ErrInvalidStatusTransition, role, from, to)
	}
	return nil
}
