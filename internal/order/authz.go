package order

import "fmt"

// Actor is a verified identity attached by one of the gatekeepers. The
// ledger trusts it as-is and performs no credential parsing.
type Actor struct {
	ID   string
	Role Role
}

// Operation names a ledger operation for authorization purposes.
type Operation string

const (
	OpRead         Operation = "read"
	OpAdminUpdate  Operation = "admin_update"
	OpAssign       Operation = "assign_courier"
	OpCourierDrive Operation = "courier_update"
	OpAccept       Operation = "accept"
	OpReject       Operation = "reject"
)

// Authorizer decides whether an actor may perform an operation on an order.
// One polymorphic capability with three role variants, consumed uniformly by
// the Ledger as defense in depth on top of the gatekeeper checks.
type Authorizer interface {
	Authorize(actor Actor, o *Order, op Operation) error
}

// RoleAuthorizer is the default Authorizer.
type RoleAuthorizer struct{}

// Authorize enforces the per-role ownership rules:
// customers may only read their own orders, couriers may only touch orders
// assigned to them, admins may do anything. Violations are Forbidden,
// deliberately distinct from NotFound.
func (RoleAuthorizer) Authorize(actor Actor, o *Order, op Operation) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleCustomer:
		if op == OpRead && o.CustomerID == actor.ID {
			return nil
		}
	case RoleCourier:
		switch op {
		case OpAccept:
			// Assignment preconditions are checked with a conditional write
			// in the repository; here we only gate the role.
			return nil
		case OpRead, OpCourierDrive, OpReject:
			if o.AssignedCourierID == actor.ID {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s may not %s order %s", ErrForbidden, actor.Role, op, o.ID)
}
