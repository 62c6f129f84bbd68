package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jcmexdev/storefront-orders/internal/gatekeeper"
	"github.com/jcmexdev/storefront-orders/internal/notification"
	"github.com/jcmexdev/storefront-orders/internal/order"
	"github.com/jcmexdev/storefront-orders/internal/payment"
	"github.com/jcmexdev/storefront-orders/internal/pricing"
)

// errorCode maps one sentinel error to its wire code and HTTP status.
type errorCode struct {
	sentinel error
	code     string
	status   int
}

// codes is the full error taxonomy in mapping order. GatewayUnavailable is
// the only retryable kind and is signalled with 502.
var codes = []errorCode{
	{pricing.ErrEmptyCheckout, "empty_checkout", http.StatusUnprocessableEntity},
	{pricing.ErrProductsUnavailable, "products_unavailable", http.StatusUnprocessableEntity},
	{payment.ErrInvalidSignature, "invalid_signature", http.StatusBadRequest},
	{payment.ErrOrderPaymentMismatch, "order_payment_mismatch", http.StatusBadRequest},
	{payment.ErrPaymentNotSuccessful, "payment_not_successful", http.StatusUnprocessableEntity},
	{payment.ErrAmountMismatch, "amount_mismatch", http.StatusUnprocessableEntity},
	{payment.ErrGatewayUnavailable, "gateway_unavailable", http.StatusBadGateway},
	{payment.ErrGatewayRejected, "gateway_rejected", http.StatusUnprocessableEntity},
	{order.ErrInvalidStatusTransition, "invalid_status_transition", http.StatusUnprocessableEntity},
	{order.ErrAlreadyAssigned, "already_assigned", http.StatusConflict},
	{order.ErrNotAuthorizedForOrder, "not_authorized_for_order", http.StatusForbidden},
	{order.ErrForbidden, "forbidden", http.StatusForbidden},
	{order.ErrNotFound, "not_found", http.StatusNotFound},
	{notification.ErrNotFound, "not_found", http.StatusNotFound},
	{gatekeeper.ErrInvalidToken, "unauthorized", http.StatusUnauthorized},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// writeDomainError translates a ledger/pipeline error into the structured
// envelope; anything outside the taxonomy is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, c := range codes {
		if errors.Is(err, c.sentinel) {
			writeError(w, c.status, c.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
