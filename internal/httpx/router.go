// Package httpx is the HTTP surface of the order backend: chi router,
// request/response DTOs, the actor middleware, and the error-kind mapping.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront-orders/internal/gatekeeper"
	"github.com/jcmexdev/storefront-orders/internal/order"
)

func NewRouter(h *Handler, gk *gatekeeper.Gatekeeper) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/token", h.IssueToken)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(gk, order.RoleCustomer))
			r.Post("/orders", h.CreateOrder)
			r.Post("/orders/gateway-session", h.CreateGatewaySession)
			r.Get("/orders", h.ListMyOrders)
			r.Get("/orders/{id}", h.GetOrder)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(gk, order.RoleCustomer, order.RoleAdmin, order.RoleCourier))
			r.Get("/notifications", h.ListNotifications)
			r.Put("/notifications/{id}/read", h.MarkNotificationRead)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(gk, order.RoleAdmin))
		r.Get("/orders", h.AdminListOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}/status", h.AdminUpdateStatus)
		r.Put("/orders/{id}/assign", h.AdminAssignCourier)
	})

	r.Route("/courier", func(r chi.Router) {
		r.Use(RequireRole(gk, order.RoleCourier))
		r.Get("/orders/available", h.CourierAvailable)
		r.Get("/orders/assigned", h.CourierAssigned)
		r.Get("/orders/completed", h.CourierCompleted)
		r.Get("/orders/{id}", h.GetOrder)
		r.Post("/orders/{id}/accept", h.CourierAccept)
		r.Post("/orders/{id}/reject", h.CourierReject)
		r.Put("/orders/{id}/status", h.CourierUpdateStatus)
	})

	return r
}
