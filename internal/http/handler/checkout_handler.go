package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
	"github.com/ouija/woocommerce-gateway-payza/internal/gateway"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/response"
	"github.com/ouija/woocommerce-gateway-payza/internal/observability"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
	"github.com/ouija/woocommerce-gateway-payza/internal/service"
)

// paymentPageTemplate renders the hosted-checkout redirect: a form carrying
// every Payza parameter as a hidden input, submitted automatically, with a
// visible button as fallback in case scripting is disabled.
var paymentPageTemplate = template.Must(template.New("payment_page").Parse(`<!DOCTYPE html>
<html>
<head><title>Redirecting to Payza</title></head>
<body>
<p>Thank you for your order. We are now redirecting you to Payza to make payment.</p>
<form action="{{.Endpoint}}" method="post" id="payza_payment_form">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}" />
{{- end}}
<input type="submit" id="submit_payza_payment_form" value="Pay via Payza" />
<a href="{{.CancelURL}}">Cancel order &amp; restore cart</a>
</form>
<script>document.getElementById("payza_payment_form").submit();</script>
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

type paymentPageData struct {
	Endpoint  string
	Fields    []formField
	CancelURL string
}

type CheckoutHandler struct {
	cfg          *config.Config
	orders       repository.OrderRepository
	orderService *service.OrderService
	availability *service.AvailabilityService
	logger       *slog.Logger
}

func NewCheckoutHandler(cfg *config.Config, orders repository.OrderRepository, orderService *service.OrderService, availability *service.AvailabilityService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{cfg: cfg, orders: orders, orderService: orderService, availability: availability, logger: logger}
}

// PaymentPage serves the auto-submitting Payza checkout form for a payable
// order. The order key acts as the access credential; there is no shopper
// session in this service.
func (h *CheckoutHandler) PaymentPage(w http.ResponseWriter, r *http.Request) {
	order, ok := h.authorizedOrder(w, r)
	if !ok {
		return
	}
	if !order.NeedsPayment() {
		response.Error(w, r, http.StatusConflict, "CONFLICT", "order no longer requires payment", nil)
		return
	}
	if err := h.availability.Available(order.Currency); err != nil {
		h.logger.Warn("payza gateway unavailable for order", "order_id", order.ID, "error", err)
		response.Error(w, r, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "payza is not available for this order", nil)
		return
	}

	params := gateway.BuildCheckoutParams(h.cfg, order)
	fields := make([]formField, 0, len(params))
	for name, value := range params {
		fields = append(fields, formField{Name: name, Value: value})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := paymentPageTemplate.Execute(w, paymentPageData{
		Endpoint:  h.cfg.CheckoutEndpoint(),
		Fields:    fields,
		CancelURL: params["ap_cancelurl"],
	}); err != nil {
		h.logger.Error("failed to render payment page", "order_id", order.ID, "error", err)
	}
}

// CancelOrder is the target of the Payza cancel redirect: the shopper
// abandoned the hosted payment page.
func (h *CheckoutHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.authorizedOrder(w, r)
	if !ok {
		return
	}
	if err := h.orderService.Cancel(r.Context(), order); err != nil {
		h.logger.Error("failed to cancel order", "order_id", order.ID, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	observability.EmitAudit(r, h.logger, observability.AuditInput{
		EventName: "payza.checkout.cancelled",
		OrderID:   order.ID,
		Outcome:   string(order.Status),
	})
	response.JSON(w, r, http.StatusOK, orderToDTO(order))
}

// OrderReceived is the post-payment return page. Completion happens via
// IPN, not here, so a still-pending order is reported as such rather than
// treated as an error.
func (h *CheckoutHandler) OrderReceived(w http.ResponseWriter, r *http.Request) {
	order, ok := h.authorizedOrder(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
		"paid":     order.Status == domain.OrderStatusCompleted,
	})
}

func (h *CheckoutHandler) authorizedOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return nil, false
	}
	order, err := h.orders.FindByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return nil, false
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return nil, false
	}
	if key := r.URL.Query().Get("key"); key == "" || key != order.OrderKey {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "invalid order key", nil)
		return nil, false
	}
	return order, true
}
