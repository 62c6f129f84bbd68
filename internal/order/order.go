// Package order owns the persisted order entity and its lifecycle: creation
// through the pricing/verification pipeline, the status state machine driven
// by three independently-authenticated actor roles, and courier assignment.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusOnTheWay   Status = "on-the-way"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses enumerates every valid status value, in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing,
	StatusShipped, StatusOnTheWay, StatusDelivered, StatusCancelled,
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentMethod is the closed set of payment methods.
type PaymentMethod string

const (
	MethodCard           PaymentMethod = "card"
	MethodUPI            PaymentMethod = "upi"
	MethodGateway        PaymentMethod = "gateway"
	MethodCashOnDelivery PaymentMethod = "cod"
)

// GatewayBacked reports whether the method settles through the payment
// gateway and therefore requires callback verification before the order
// is persisted. Cash-on-delivery settles out-of-band.
func (m PaymentMethod) GatewayBacked() bool {
	switch m {
	case MethodCard, MethodUPI, MethodGateway:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentInfo records how an order was (or will be) paid. For gateway-backed
// methods the three Gateway* fields carry the verified callback triple.
type PaymentInfo struct {
	Method           PaymentMethod `json:"method"`
	GatewayOrderID   string        `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	GatewaySignature string        `json:"gateway_signature,omitempty"`
	Status           PaymentStatus `json:"status"`
}

// LineItem is one priced, quantified product entry frozen into an order at
// checkout time. UnitPrice is a snapshot of the catalog price at resolution
// time; later catalog changes never mutate existing orders.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Weight    string          `json:"weight,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// Subtotal returns UnitPrice × Quantity for this line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PricingSummary is the server-computed money breakdown of an order.
// Total is always Subtotal + ShippingFee + Tax and is never accepted
// verbatim from a client.
type PricingSummary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// TotalMinorUnits returns Total expressed in minor currency units
// (price × 100, rounded to the nearest integer), the unit the payment
// gateway reports amounts in.
func (p PricingSummary) TotalMinorUnits() int64 {
	return p.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ShippingInfo is the customer contact/shipping snapshot captured on the
// order at checkout; it does not track later profile edits.
type ShippingInfo struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Order is the persisted order entity. Created once at checkout completion,
// mutated only through the Ledger's defined transitions, never deleted.
type Order struct {
	ID                string         `json:"id"`
	OrderNumber       string         `json:"order_number"`
	CustomerID        string         `json:"customer_id"`
	Items             []LineItem     `json:"items"`
	Shipping          ShippingInfo   `json:"shipping"`
	Payment           PaymentInfo    `json:"payment"`
	Pricing           PricingSummary `json:"pricing"`
	Status            Status         `json:"status"`
	AssignedCourierID string         `json:"assigned_courier_id,omitempty"`
	PaymentCollected  bool           `json:"payment_collected"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Courier-facing read views, filtered by exact status-set membership.
var (
	// AssignedView covers orders a courier is actively working.
	AssignedView = []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusOnTheWay}
	// CompletedView covers finished deliveries.
	CompletedView = []Status{StatusDelivered}
	// AvailableView covers orders open for courier acceptance.
	AvailableView = []Status{StatusPending}
)
