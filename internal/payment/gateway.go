// Package payment talks to the third-party payment gateway and verifies
// checkout callbacks against it. It never mutates ledger state.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrGatewayUnavailable wraps transport failures and gateway 5xx
	// responses. It is the only error in the payment taxonomy a caller
	// should retry — safe because order creation is idempotent on the
	// gateway payment id.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected wraps gateway 4xx responses: the gateway understood
	// the request and refused it (unknown payment id, bad credentials).
	// Not retryable, and not a fault of this server.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

// RemotePayment is the gateway's record of a payment, as returned by the
// fetch-by-id endpoint. Amount is in minor currency units.
type RemotePayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

// RemoteOrder is the gateway-side order created before the client is handed
// off to the gateway's checkout flow.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway is the remote collaborator contract the verifier depends on.
type Gateway interface {
	// CreateOrder registers an order with the gateway. amount is in minor
	// units; receipt is an idempotency string echoed back by the gateway.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (RemoteOrder, error)

	// FetchPayment returns the live payment record by payment id.
	FetchPayment(ctx context.Context, paymentID string) (RemotePayment, error)
}

// Client is the HTTP implementation of Gateway. Every call is bounded by the
// underlying http.Client timeout so no checkout blocks indefinitely.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	httpc   *http.Client
}

// NewClient builds a gateway client. timeout bounds each remote call.
func NewClient(baseURL, keyID, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (RemoteOrder, error) {
	body, _ := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return RemoteOrder{}, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	var out RemoteOrder
	if err := c.do(req, &out); err != nil {
		return RemoteOrder{}, err
	}
	return out, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (RemotePayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return RemotePayment{}, fmt.Errorf("gateway: build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.secret)

	var out RemotePayment
	if err := c.do(req, &out); err != nil {
		return RemotePayment{}, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}
