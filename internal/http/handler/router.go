package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ouija/woocommerce-gateway-payza/internal/http/middleware"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/response"
)

// NewRouter wires the HTTP surface. The IPN webhook is deliberately left
// outside the rate limiter: throttling Payza would only turn one
// notification into a retry storm.
func NewRouter(ipn *IPNHandler, checkout *CheckoutHandler, orders *OrderHandler, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		response.JSON(w, req, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Post("/ipn/payza", ipn.HandleNotification)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Post("/orders", orders.CreateOrder)
		r.Get("/orders", orders.ListOrders)
		r.Get("/orders/{id}", orders.GetOrder)

		r.Get("/checkout/{id}/pay", checkout.PaymentPage)
		r.Get("/checkout/{id}/cancel", checkout.CancelOrder)
		r.Get("/checkout/order-received/{id}", checkout.OrderReceived)
	})

	return r
}
