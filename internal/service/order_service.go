package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
)

var (
	ErrOrderHasNoItems  = errors.New("order must contain at least one item")
	ErrOrderBadCurrency = errors.New("order currency must be a 3-letter code")
)

type CreateOrderItem struct {
	Name        string
	SKU         string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateOrderInput struct {
	Currency      string
	TaxTotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal
	Items         []CreateOrderItem

	BillingFirstName string
	BillingLastName  string
	BillingAddress1  string
	BillingAddress2  string
	BillingCity      string
	BillingState     string
	BillingPostcode  string
	BillingCountry   string
	BillingEmail     string
	BillingPhone     string
}

type OrderService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

func NewOrderService(orders repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

// Create persists a new pending order. The total is fixed here, at
// checkout time, and is never recomputed afterwards: reconciliation only
// compares against it.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Currency) != 3 {
		return nil, ErrOrderBadCurrency
	}
	if len(in.Items) == 0 {
		return nil, ErrOrderHasNoItems
	}

	itemsTotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, domain.OrderItem{
			Name:        item.Name,
			SKU:         item.SKU,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
		if item.Quantity > 0 {
			itemsTotal = itemsTotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	order := &domain.Order{
		OrderKey:         NewOrderKey(),
		Currency:         in.Currency,
		Total:            itemsTotal.Add(in.ShippingTotal).Add(in.TaxTotal).Sub(in.DiscountTotal),
		TaxTotal:         in.TaxTotal,
		ShippingTotal:    in.ShippingTotal,
		DiscountTotal:    in.DiscountTotal,
		Status:           domain.OrderStatusPending,
		Items:            items,
		BillingFirstName: in.BillingFirstName,
		BillingLastName:  in.BillingLastName,
		BillingAddress1:  in.BillingAddress1,
		BillingAddress2:  in.BillingAddress2,
		BillingCity:      in.BillingCity,
		BillingState:     in.BillingState,
		BillingPostcode:  in.BillingPostcode,
		BillingCountry:   in.BillingCountry,
		BillingEmail:     in.BillingEmail,
		BillingPhone:     in.BillingPhone,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order created", "order_id", order.ID, "total", order.Total.StringFixed(2), "currency", order.Currency)
	return order, nil
}

// Cancel transitions a still-payable order to cancelled; used when the
// shopper abandons the hosted payment page. Cancelling a non-payable order
// is a no-op.
func (s *OrderService) Cancel(ctx context.Context, order *domain.Order) error {
	if !order.NeedsPayment() {
		return nil
	}
	return s.orders.MarkCancelled(ctx, order, "Order cancelled by customer before Payza payment")
}

// NewOrderKey generates the anti-tampering secret carried alongside the
// numeric order id through the processor round trip.
func NewOrderKey() string {
	return "wc_order_" + uuid.NewString()
}
