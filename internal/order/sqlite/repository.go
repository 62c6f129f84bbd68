// Package sqlite provides the SQLite-backed order repository.
//
// WAL mode is enabled on Open so readers never block the single writer
// connection. The UNIQUE partial index on gateway_payment_id is the real
// idempotency enforcement for gateway-backed checkouts; the ledger's
// pre-read is only an optimization on top of it. Courier assignment uses
// conditional UPDATEs (precondition re-checked at write time) so racing
// accepts resolve to exactly one winner.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO so
	// the binary builds cleanly in minimal containers.
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id                  TEXT PRIMARY KEY,
    order_number        TEXT NOT NULL UNIQUE,
    customer_id         TEXT NOT NULL,

    -- Line items and the shipping snapshot are frozen at creation time and
    -- never rewritten, so they live as JSON TEXT rather than child tables.
    items               TEXT NOT NULL,
    shipping            TEXT NOT NULL,

    payment_method      TEXT NOT NULL,
    gateway_order_id    TEXT NOT NULL DEFAULT '',
    gateway_payment_id  TEXT NOT NULL DEFAULT '',
    gateway_signature   TEXT NOT NULL DEFAULT '',
    payment_status      TEXT NOT NULL,

    -- Money columns hold decimal strings; arithmetic happens in Go.
    subtotal            TEXT NOT NULL,
    shipping_fee        TEXT NOT NULL,
    tax                 TEXT NOT NULL,
    total               TEXT NOT NULL,

    status              TEXT NOT NULL,
    assigned_courier_id TEXT,
    payment_collected   INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL,
    updated_at          TEXT NOT NULL
);

-- Idempotency key for gateway-backed checkouts. Partial so cash-on-delivery
-- orders (empty payment id) do not collide with each other.
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_gateway_payment_id
    ON orders(gateway_payment_id) WHERE gateway_payment_id != '';

CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_courier ON orders(assigned_courier_id, status);

CREATE TABLE IF NOT EXISTS courier_stats (
    courier_id  TEXT PRIMARY KEY,
    deliveries  INTEGER NOT NULL DEFAULT 0
);

-- Single-row atomic counter backing the public order number sequence.
CREATE TABLE IF NOT EXISTS order_seq (
    id   INTEGER PRIMARY KEY CHECK (id = 1),
    seq  INTEGER NOT NULL
);
INSERT INTO order_seq (id, seq) VALUES (1, 0) ON CONFLICT(id) DO NOTHING;
`

// Repository is the SQLite implementation of order.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// DB exposes the shared handle so sibling stores (catalog, notifications)
// can live in the same database file.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("sqlite: marshal items: %w", err)
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("sqlite: marshal shipping: %w", err)
	}

	const q = `
		INSERT INTO orders (
			id, order_number, customer_id, items, shipping,
			payment_method, gateway_order_id, gateway_payment_id, gateway_signature, payment_status,
			subtotal, shipping_fee, tax, total,
			status, assigned_courier_id, payment_collected, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		o.ID, o.OrderNumber, o.CustomerID, string(items), string(shipping),
		string(o.Payment.Method), o.Payment.GatewayOrderID, o.Payment.GatewayPaymentID,
		o.Payment.GatewaySignature, string(o.Payment.Status),
		o.Pricing.Subtotal.String(), o.Pricing.ShippingFee.String(),
		o.Pricing.Tax.String(), o.Pricing.Total.String(),
		string(o.Status), nullableCourier(o.AssignedCourierID), boolToInt(o.PaymentCollected),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "gateway_payment_id") {
			return order.ErrDuplicatePayment
		}
		return fmt.Errorf("sqlite: insert order %q: %w", o.ID, err)
	}
	return nil
}

const selectOrder = `
	SELECT id, order_number, customer_id, items, shipping,
	       payment_method, gateway_order_id, gateway_payment_id, gateway_signature, payment_status,
	       subtotal, shipping_fee, tax, total,
	       status, COALESCE(assigned_courier_id, ''), payment_collected, created_at, updated_at
	FROM   orders`

func (r *Repository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	return o, nil
}

func (r *Repository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	if paymentID == "" {
		return nil, order.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE gateway_payment_id = ?`, paymentID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order by payment %q: %w", paymentID, err)
	}
	return o, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	return r.list(ctx, selectOrder+` WHERE customer_id = ? ORDER BY created_at DESC`, customerID)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []order.Status) ([]*order.Order, error) {
	q, args := statusFilter(selectOrder+` WHERE 1=1`, statuses, nil)
	return r.list(ctx, q+` ORDER BY created_at DESC`, args...)
}

func (r *Repository) ListByCourier(ctx context.Context, courierID string, statuses []order.Status) ([]*order.Order, error) {
	q, args := statusFilter(selectOrder+` WHERE assigned_courier_id = ?`, statuses, []any{courierID})
	return r.list(ctx, q+` ORDER BY created_at DESC`, args...)
}

func (r *Repository) ListUnassigned(ctx context.Context, statuses []order.Status) ([]*order.Order, error) {
	q, args := statusFilter(selectOrder+` WHERE assigned_courier_id IS NULL`, statuses, nil)
	return r.list(ctx, q+` ORDER BY created_at DESC`, args...)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to order.Status, courierID string, paymentCollected *bool) error {
	// Compare-and-set: the status (and courier, for courier-driven updates)
	// observed at read time is re-checked inside the UPDATE, so a concurrent
	// transition or reassignment cannot be silently overwritten.
	set := `status = ?, updated_at = ?`
	args := []any{string(to), nowText()}
	if paymentCollected != nil {
		set = `status = ?, payment_collected = ?, updated_at = ?`
		args = []any{string(to), boolToInt(*paymentCollected), nowText()}
	}
	cond := ` WHERE id = ? AND status = ?`
	args = append(args, id, string(from))
	if courierID != "" {
		cond += ` AND assigned_courier_id = ?`
		args = append(args, courierID)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE orders SET `+set+cond, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update status of %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		o, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if courierID != "" && o.AssignedCourierID != courierID {
			return order.ErrNotAuthorizedForOrder
		}
		return fmt.Errorf("%w: order moved to %s", order.ErrInvalidStatusTransition, o.Status)
	}
	return nil
}

func (r *Repository) AssignCourier(ctx context.Context, id, courierID string) error {
	const q = `
		UPDATE orders
		SET    assigned_courier_id = ?, status = ?, updated_at = ?
		WHERE  id = ?`
	res, err := r.db.ExecContext(ctx, q, courierID, string(order.StatusProcessing), nowText(), id)
	if err != nil {
		return fmt.Errorf("sqlite: assign courier to %q: %w", id, err)
	}
	return requireRow(res, order.ErrNotFound)
}

func (r *Repository) AcceptOrder(ctx context.Context, id, courierID string) error {
	// Conditional write: the unassigned-or-self precondition is evaluated
	// inside the UPDATE, so two racing accepts cannot both succeed.
	const q = `
		UPDATE orders
		SET    assigned_courier_id = ?, status = ?, updated_at = ?
		WHERE  id = ? AND (assigned_courier_id IS NULL OR assigned_courier_id = ?)`
	res, err := r.db.ExecContext(ctx, q, courierID, string(order.StatusConfirmed), nowText(), id, courierID)
	if err != nil {
		return fmt.Errorf("sqlite: accept order %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return order.ErrAlreadyAssigned
	}
	return nil
}

func (r *Repository) RejectOrder(ctx context.Context, id, courierID string) error {
	const q = `
		UPDATE orders
		SET    assigned_courier_id = NULL, status = ?, updated_at = ?
		WHERE  id = ? AND assigned_courier_id = ?`
	res, err := r.db.ExecContext(ctx, q, string(order.StatusPending), nowText(), id, courierID)
	if err != nil {
		return fmt.Errorf("sqlite: reject order %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return order.ErrNotAuthorizedForOrder
	}
	return nil
}

func (r *Repository) IncrementDeliveries(ctx context.Context, courierID string) error {
	const q = `
		INSERT INTO courier_stats (courier_id, deliveries) VALUES (?, 1)
		ON CONFLICT(courier_id) DO UPDATE SET deliveries = deliveries + 1`
	if _, err := r.db.ExecContext(ctx, q, courierID); err != nil {
		return fmt.Errorf("sqlite: increment deliveries for %q: %w", courierID, err)
	}
	return nil
}

// Deliveries returns the courier's completed-delivery counter.
func (r *Repository) Deliveries(ctx context.Context, courierID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT deliveries FROM courier_stats WHERE courier_id = ?), 0)`,
		courierID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: read deliveries for %q: %w", courierID, err)
	}
	return n, nil
}

func (r *Repository) NextOrderSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE order_seq SET seq = seq + 1 WHERE id = 1 RETURNING seq`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sqlite: next order seq: %w", err)
	}
	return seq, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func statusFilter(q string, statuses []order.Status, args []any) (string, []any) {
	if len(statuses) == 0 {
		return q, args
	}
	q += ` AND status IN (` + strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",") + `)`
	for _, s := range statuses {
		args = append(args, string(s))
	}
	return q, args
}

func isUniqueViolation(err error, fragment string) bool {
	// modernc.org/sqlite surfaces constraint failures as
	// "constraint failed: UNIQUE constraint failed: orders.<column>".
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), fragment)
}

func requireRow(res sql.Result, missing error) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return missing
	}
	return nil
}

func nullableCourier(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowText() string {
	return formatTime(time.Now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
