package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is a customer order moving through the fulfillment workflow.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	Number          string          `bun:"number,unique,notnull" json:"number"`
	CustomerID      int64           `bun:"customer_id,notnull" json:"customer_id"`
	MainBakerID     *int64          `bun:"main_baker_id" json:"main_baker_id,omitempty"`
	JuniorBakerID   *int64          `bun:"junior_baker_id" json:"junior_baker_id,omitempty"`
	Status          string          `bun:"status,notnull" json:"status"`
	TotalAmount     decimal.Decimal `bun:"total_amount,type:numeric(12,2),notnull" json:"total_amount"`
	IsRush          bool            `bun:"is_rush,notnull" json:"is_rush"`
	QualityFeedback string          `bun:"quality_feedback,nullzero" json:"quality_feedback,omitempty"`
	Deadline        *time.Time      `bun:"deadline" json:"deadline,omitempty"`
	OverdueNotified *time.Time      `bun:"overdue_notified_at" json:"overdue_notified_at,omitempty"`
	Version         int64           `bun:"version,notnull,default:1" json:"version"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updated_at"`

	Items    []*OrderItem  `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	Shipping *ShippingInfo `bun:"rel:has-one,join:id=order_id" json:"shipping,omitempty"`
}

// OrderItem is an immutable line snapshot captured at checkout.
// Exactly one of ProductID and CustomCakeID is set.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID           int64           `bun:",pk,autoincrement" json:"id"`
	OrderID      int64           `bun:"order_id,notnull" json:"order_id"`
	ProductID    *int64          `bun:"product_id" json:"product_id,omitempty"`
	CustomCakeID *int64          `bun:"custom_cake_id" json:"custom_cake_id,omitempty"`
	Name         string          `bun:"name,notnull" json:"name"`
	Quantity     int             `bun:"quantity,notnull" json:"quantity"`
	UnitPrice    decimal.Decimal `bun:"unit_price,type:numeric(12,2),notnull" json:"unit_price"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Subtotal returns quantity * unit price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingInfo is where and to whom an order is delivered.
type ShippingInfo struct {
	bun.BaseModel `bun:"table:shipping_info"`

	ID            int64  `bun:",pk,autoincrement" json:"id"`
	OrderID       int64  `bun:"order_id,unique,notnull" json:"order_id"`
	RecipientName string `bun:"recipient_name,notnull" json:"recipient_name"`
	Phone         string `bun:"phone" json:"phone"`
	AddressLine   string `bun:"address_line,notnull" json:"address_line"`
	City          string `bun:"city,notnull" json:"city"`
	PostalCode    string `bun:"postal_code" json:"postal_code"`
	Notes         string `bun:"notes" json:"notes"`
}

// OrderStatusHistory records one transition or assignment.
type OrderStatusHistory struct {
	bun.BaseModel `bun:"table:order_status_history"`

	ID         int64     `bun:",pk,autoincrement" json:"id"`
	OrderID    int64     `bun:"order_id,notnull" json:"order_id"`
	FromStatus string    `bun:"from_status,notnull" json:"from_status"`
	ToStatus   string    `bun:"to_status,notnull" json:"to_status"`
	ActorID    *int64    `bun:"actor_id" json:"actor_id,omitempty"`
	ActorRole  string    `bun:"actor_role,notnull" json:"actor_role"`
	Feedback   string    `bun:"feedback" json:"feedback,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
