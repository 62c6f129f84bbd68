package httpx

import (
	"github.com/jcmexdev/storefront-orders/internal/order"
)

// CartItemDTO is one raw cart entry as submitted. Quantity is untyped
// because clients send numbers, numeric strings, or nothing; normalization
// coerces it. Any client-supplied price field is simply not modelled — the
// server never reads one.
type CartItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  any    `json:"quantity"`
}

// coerce turns the DTO into a cart entry: invalid or non-positive quantities
// fall back to 1, the assembler's clamp rule.
func (d CartItemDTO) coerce() order.CartEntry {
	q := 1
	switch v := d.Quantity.(type) {
	case float64:
		if v == float64(int(v)) && int(v) > 0 {
			q = int(v)
		}
	case string:
		n := 0
		for _, r := range v {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n > 0 {
			q = n
		}
	}
	return order.CartEntry{ProductID: d.ProductID, Quantity: q}
}

type ShippingDTO struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type CreateOrderRequest struct {
	Items    []CartItemDTO `json:"items"`
	Shipping ShippingDTO   `json:"shipping"`
	Method   string        `json:"payment_method"`

	// Gateway callback triple, required for gateway-backed methods.
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

type GatewaySessionRequest struct {
	Items []CartItemDTO `json:"items"`
}

type GatewaySessionResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type UpdateStatusRequest struct {
	Status           string `json:"status"`
	PaymentCollected bool   `json:"payment_collected"`
}

type AssignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

type TokenRequest struct {
	Role string `json:"role"`
	ID   string `json:"id"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
