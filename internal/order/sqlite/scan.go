package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*order.Order, error) {
	var o order.Order
	var items, shipping string
	var method, paymentStatus, status string
	var subtotal, shippingFee, tax, total string
	var collected int
	var createdAt, updatedAt string

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &items, &shipping,
		&method, &o.Payment.GatewayOrderID, &o.Payment.GatewayPaymentID,
		&o.Payment.GatewaySignature, &paymentStatus,
		&subtotal, &shippingFee, &tax, &total,
		&status, &o.AssignedCourierID, &collected, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items of %q: %w", o.ID, err)
	}
	if err := json.Unmarshal([]byte(shipping), &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping of %q: %w", o.ID, err)
	}

	o.Payment.Method = order.PaymentMethod(method)
	o.Payment.Status = order.PaymentStatus(paymentStatus)
	o.Status = order.Status(status)
	o.PaymentCollected = collected != 0

	if o.Pricing.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("bad subtotal %q: %w", subtotal, err)
	}
	if o.Pricing.ShippingFee, err = decimal.NewFromString(shippingFee); err != nil {
		return nil, fmt.Errorf("bad shipping fee %q: %w", shippingFee, err)
	}
	if o.Pricing.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("bad tax %q: %w", tax, err)
	}
	if o.Pricing.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("bad total %q: %w", total, err)
	}

	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	return &o, nil
}
