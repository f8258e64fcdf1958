package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is the platform-side record a payment attempt is reconciled
// against. Monetary amounts are fixed at checkout time; reconciliation only
// reads them.
type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// OrderKey is an anti-tampering secret distinct from the numeric id,
	// echoed through the processor so forged correlation can be detected.
	OrderKey string `gorm:"uniqueIndex;size:64;not null" json:"order_key"`

	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	TaxTotal      decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax_total"`
	ShippingTotal decimal.Decimal `gorm:"type:numeric(12,2)" json:"shipping_total"`
	DiscountTotal decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_total"`

	Status OrderStatus `gorm:"size:32;not null;index;default:pending" json:"status"`
	PaidAt *time.Time  `json:"paid_at,omitempty"`

	BillingFirstName string `gorm:"size:128" json:"billing_first_name"`
	BillingLastName  string `gorm:"size:128" json:"billing_last_name"`
	BillingAddress1  string `gorm:"size:255" json:"billing_address_1"`
	BillingAddress2  string `gorm:"size:255" json:"billing_address_2"`
	BillingCity      string `gorm:"size:128" json:"billing_city"`
	BillingState     string `gorm:"size:128" json:"billing_state"`
	BillingPostcode  string `gorm:"size:32" json:"billing_postcode"`
	BillingCountry   string `gorm:"size:2" json:"billing_country"`
	BillingEmail     string `gorm:"size:255" json:"billing_email"`
	BillingPhone     string `gorm:"size:64" json:"billing_phone"`

	Metadata datatypes.JSONMap `json:"metadata,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Notes []OrderNote `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	SKU         string          `gorm:"size:64" json:"sku"`
	Description string          `gorm:"size:512" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderNote is the free-form audit log attached to an order; reconciliation
// outcomes are reported to the merchant through it.
type OrderNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Note      string    `gorm:"size:1024;not null" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// NeedsPayment reports whether the order can still accept a payment. A
// completed, processing or cancelled order does not, which is what makes
// reconciliation replays no-ops.
func (o *Order) NeedsPayment() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusFailed
}
