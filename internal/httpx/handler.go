package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/gatekeeper"
	"github.com/jcmexdev/storefront-orders/internal/notification"
	"github.com/jcmexdev/storefront-orders/internal/order"
	"github.com/jcmexdev/storefront-orders/internal/payment"
)

// Handler exposes the order ledger, gateway session creation, and the
// notification inbox over HTTP.
type Handler struct {
	ledger        *order.Ledger
	assembler     order.Assembler
	gateway       payment.Gateway
	gatekeeper    *gatekeeper.Gatekeeper
	notifications notification.Store
	currency      string
}

func NewHandler(
	ledger *order.Ledger,
	assembler order.Assembler,
	gw payment.Gateway,
	gk *gatekeeper.Gatekeeper,
	store notification.Store,
	currency string,
) *Handler {
	return &Handler{
		ledger:        ledger,
		assembler:     assembler,
		gateway:       gw,
		gatekeeper:    gk,
		notifications: store,
		currency:      currency,
	}
}

// ── Customer ────────────────────────────────────────────────────────────

// CreateOrder runs checkout: pricing is recomputed server-side, the gateway
// claim (if any) is verified, and the order is persisted exactly once.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	method := order.PaymentMethod(req.Method)
	switch method {
	case order.MethodCard, order.MethodUPI, order.MethodGateway, order.MethodCashOnDelivery:
	default:
		writeError(w, http.StatusBadRequest, "invalid_payment_method", "unknown payment method "+req.Method)
		return
	}

	actor := actorFrom(r.Context())
	in := order.CreateInput{
		Customer: actor,
		Items:    coerceItems(req.Items),
		Shipping: order.ShippingInfo{
			Name:       req.Shipping.Name,
			Phone:      req.Shipping.Phone,
			Address:    req.Shipping.Address,
			City:       req.Shipping.City,
			PostalCode: req.Shipping.PostalCode,
		},
		Method: method,
		Claim: order.GatewayClaim{
			OrderID:   req.GatewayOrderID,
			PaymentID: req.GatewayPaymentID,
			Signature: req.GatewaySignature,
		},
	}

	o, err := h.ledger.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// CreateGatewaySession prices the cart server-side and registers a remote
// gateway order for that amount, handing the client the reference it needs
// for the gateway checkout flow.
func (h *Handler) CreateGatewaySession(w http.ResponseWriter, r *http.Request) {
	var req GatewaySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	_, pricing, err := h.assembler.Assemble(r.Context(), coerceItems(req.Items))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	receipt := "rcpt_" + uuid.NewString()
	remote, err := h.gateway.CreateOrder(r.Context(), pricing.TotalMinorUnits(), h.currency, receipt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, GatewaySessionResponse{
		GatewayOrderID: remote.ID,
		Amount:         remote.Amount,
		Currency:       remote.Currency,
	})
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.ListForCustomer(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ── Admin ───────────────────────────────────────────────────────────────

// AdminListOrders returns all orders, optionally filtered by ?status=a,b.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	statuses, ok := parseStatuses(r.URL.Query().Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown status in filter")
		return
	}
	orders, err := h.ledger.ListByStatus(r.Context(), statuses)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	o, err := h.ledger.AdminUpdateStatus(r.Context(), actorFrom(r.Context()),
		chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) AdminAssignCourier(w http.ResponseWriter, r *http.Request) {
	var req AssignCourierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.CourierID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "courier_id is required")
		return
	}
	o, err := h.ledger.AssignCourier(r.Context(), actorFrom(r.Context()),
		chi.URLParam(r, "id"), req.CourierID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ── Courier ─────────────────────────────────────────────────────────────

func (h *Handler) CourierAvailable(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.CourierAvailable(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) CourierAssigned(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.CourierAssigned(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) CourierCompleted(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.CourierCompleted(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) CourierAccept(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.AcceptOrder(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CourierReject(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.RejectOrder(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CourierUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	o, err := h.ledger.CourierUpdateStatus(r.Context(), actorFrom(r.Context()),
		chi.URLParam(r, "id"), order.Status(req.Status), req.PaymentCollected)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ── Notifications ───────────────────────────────────────────────────────

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	list, err := h.notifications.ListForRecipient(r.Context(), recipientClass(actor.Role), actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Tokens ──────────────────────────────────────────────────────────────

// IssueToken mints a bearer token for an externally-authenticated actor.
// Credential validation itself lives outside this core; this endpoint is
// the seam where a verified identity enters the system.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	role := order.Role(req.Role)
	switch role {
	case order.RoleCustomer, order.RoleAdmin, order.RoleCourier:
	default:
		writeError(w, http.StatusBadRequest, "invalid_role", "unknown role "+req.Role)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	token, err := h.gatekeeper.Issue(r.Context(), order.Actor{ID: req.ID, Role: role})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token})
}

// ── helpers ─────────────────────────────────────────────────────────────

func coerceItems(items []CartItemDTO) []order.CartEntry {
	out := make([]order.CartEntry, 0, len(items))
	for _, it := range items {
		out = append(out, it.coerce())
	}
	return out
}

func parseStatuses(raw string) ([]order.Status, bool) {
	if raw == "" {
		return nil, true
	}
	var out []order.Status
	for _, part := range strings.Split(raw, ",") {
		s := order.Status(strings.TrimSpace(part))
		if !s.Valid() {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func recipientClass(role order.Role) notification.Recipient {
	switch role {
	case order.RoleAdmin:
		return notification.RecipientAdmin
	case order.RoleCourier:
		return notification.RecipientCourier
	default:
		return notification.RecipientCustomer
	}
}
