package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/response"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
	"github.com/ouija/woocommerce-gateway-payza/internal/service"
)

type OrderHandler struct {
	orders       repository.OrderRepository
	orderService *service.OrderService
	logger       *slog.Logger
}

func NewOrderHandler(orders repository.OrderRepository, orderService *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, orderService: orderService, logger: logger}
}

type createOrderItemDTO struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type createOrderDTO struct {
	Currency      string               `json:"currency"`
	TaxTotal      string               `json:"tax_total"`
	ShippingTotal string               `json:"shipping_total"`
	DiscountTotal string               `json:"discount_total"`
	Items         []createOrderItemDTO `json:"items"`
	Billing       struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Address1  string `json:"address_1"`
		Address2  string `json:"address_2"`
		City      string `json:"city"`
		State     string `json:"state"`
		Postcode  string `json:"postcode"`
		Country   string `json:"country"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"billing"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	in := service.CreateOrderInput{
		Currency:         strings.ToUpper(strings.TrimSpace(body.Currency)),
		BillingFirstName: body.Billing.FirstName,
		BillingLastName:  body.Billing.LastName,
		BillingAddress1:  body.Billing.Address1,
		BillingAddress2:  body.Billing.Address2,
		BillingCity:      body.Billing.City,
		BillingState:     body.Billing.State,
		BillingPostcode:  body.Billing.Postcode,
		BillingCountry:   body.Billing.Country,
		BillingEmail:     body.Billing.Email,
		BillingPhone:     body.Billing.Phone,
	}

	var err error
	if in.TaxTotal, err = parseAmount(body.TaxTotal); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid tax_total", nil)
		return
	}
	if in.ShippingTotal, err = parseAmount(body.ShippingTotal); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid shipping_total", nil)
		return
	}
	if in.DiscountTotal, err = parseAmount(body.DiscountTotal); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid discount_total", nil)
		return
	}
	for _, item := range body.Items {
		price, err := parseAmount(item.UnitPrice)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid item unit_price", nil)
			return
		}
		in.Items = append(in.Items, service.CreateOrderItem{
			Name:        item.Name,
			SKU:         item.SKU,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
	}

	order, err := h.orderService.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrOrderBadCurrency) || errors.Is(err, service.ErrOrderHasNoItems) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		h.logger.Error("failed to create order", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create order", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, orderToDTO(order))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	order, err := h.orders.FindByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, orderToDTO(order))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	result, err := h.orders.List(r.Context(), repository.PageRequest{Page: page, PageSize: pageSize})
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	items := make([]map[string]any, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, orderToDTO(&result.Items[i]))
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"items":       items,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	})
}

func orderToDTO(order *domain.Order) map[string]any {
	dto := map[string]any{
		"id":        order.ID,
		"order_key": order.OrderKey,
		"currency":  order.Currency,
		"total":     order.Total.StringFixed(2),
		"status":    order.Status,
	}
	if order.PaidAt != nil {
		dto["paid_at"] = order.PaidAt
	}
	if len(order.Metadata) > 0 {
		dto["metadata"] = order.Metadata
	}
	return dto
}

func parseAmount(v string) (decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}
