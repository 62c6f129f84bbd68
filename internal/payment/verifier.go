package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

// Verification failure taxonomy. None of these are retryable; see
// ErrGatewayUnavailable for the one transient case.
var (
	// ErrInvalidSignature means the HMAC over the claim did not match. No
	// remote call is made after this check fails.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrOrderPaymentMismatch means the remote payment is linked to a
	// different gateway order than the one claimed.
	ErrOrderPaymentMismatch = errors.New("payment does not belong to the claimed order")

	// ErrPaymentNotSuccessful means the remote status is outside the
	// accepted set; the wrapped message carries the actual remote status.
	ErrPaymentNotSuccessful = errors.New("payment not successful")

	// ErrAmountMismatch means the remote amount differs from the computed
	// total by at least one minor unit.
	ErrAmountMismatch = errors.New("payment amount does not match order total")
)

// acceptedStatuses is the set of remote payment states that settle a
// checkout.
var acceptedStatuses = map[string]struct{}{
	"captured":   {},
	"authorized": {},
}

// Verifier implements order.Verifier: it validates a gateway callback triple
// against the shared secret and cross-checks the live remote record.
type Verifier struct {
	gateway Gateway
	secret  string
}

func NewVerifier(g Gateway, secret string) *Verifier {
	return &Verifier{gateway: g, secret: secret}
}

// Verify runs the four mandatory checks, cheapest first:
//
//  1. HMAC-SHA256("orderID|paymentID", secret) equals the claimed signature.
//     A mismatch short-circuits before any gateway call — unverified input
//     never earns a remote fetch.
//  2. The remote payment's linked order id equals the claimed order id.
//  3. The remote status is captured or authorized.
//  4. The remote amount (minor units) exactly equals total × 100.
//
// Verify has no side effects beyond the read-only remote fetch.
func (v *Verifier) Verify(ctx context.Context, claim order.GatewayClaim, total decimal.Decimal) error {
	expected := Sign(claim.OrderID, claim.PaymentID, v.secret)
	if !hmac.Equal([]byte(expected), []byte(claim.Signature)) {
		return ErrInvalidSignature
	}

	remote, err := v.gateway.FetchPayment(ctx, claim.PaymentID)
	if err != nil {
		return err
	}

	if remote.OrderID != claim.OrderID {
		return ErrOrderPaymentMismatch
	}
	if _, ok := acceptedStatuses[remote.Status]; !ok {
		return fmt.Errorf("%w: remote status %q", ErrPaymentNotSuccessful, remote.Status)
	}

	want := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if remote.Amount != want {
		return fmt.Errorf("%w: gateway reports %d, order totals %d", ErrAmountMismatch, remote.Amount, want)
	}
	return nil
}

// Sign computes the gateway signature scheme: hex-encoded HMAC-SHA256 over
// "{orderID}|{paymentID}" with the shared secret.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}
