package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakery-bliss/bakery/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID               int64               `json:"id"`
	Number           string              `json:"number"`
	CustomerID       int64               `json:"customer_id"`
	MainBakerID      *int64              `json:"main_baker_id,omitempty"`
	JuniorBakerID    *int64              `json:"junior_baker_id,omitempty"`
	Status           string              `json:"status"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	IsRush           bool                `json:"is_rush"`
	QualityFeedback  string              `json:"quality_feedback,omitempty"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
	Version          int64               `json:"version"`
	Items            []OrderItemResponse `json:"items,omitempty"`
	Shipping         *ShippingResponse   `json:"shipping,omitempty"`
	AvailableActions []string            `json:"available_actions"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderItemResponse is one line of an order.
type OrderItemResponse struct {
	ProductID    *int64          `json:"product_id,omitempty"`
	CustomCakeID *int64          `json:"custom_cake_id,omitempty"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ShippingResponse is the delivery address of an order.
type ShippingResponse struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone,omitempty"`
	AddressLine   string `json:"address_line"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// HistoryResponse is one status history entry.
type HistoryResponse struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role"`
	Feedback   string    `json:"feedback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewOrderResponse converts an order. actions lists the statuses the caller may request next.
func NewOrderResponse(o *entity.Order, actions []string) OrderResponse {
	if actions == nil {
		actions = []string{}
	}
	resp := OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		MainBakerID:      o.MainBakerID,
		JuniorBakerID:    o.JuniorBakerID,
		Status:           o.Status,
		TotalAmount:      o.TotalAmount,
		IsRush:           o.IsRush,
		QualityFeedback:  o.QualityFeedback,
		Deadline:         o.Deadline,
		Version:          o.Version,
		AvailableActions: actions,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:    it.ProductID,
			CustomCakeID: it.CustomCakeID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Subtotal:     it.Subtotal(),
		})
	}
	if s := o.Shipping; s != nil {
		resp.Shipping = &ShippingResponse{
			RecipientName: s.RecipientName,
			Phone:         s.Phone,
			AddressLine:   s.AddressLine,
			City:          s.City,
			PostalCode:    s.PostalCode,
			Notes:         s.Notes,
		}
	}
	return resp
}

// NewHistoryResponses converts status history rows.
func NewHistoryResponses(rows []*entity.OrderStatusHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			ActorID:    h.ActorID,
			ActorRole:  h.ActorRole,
			Feedback:   h.Feedback,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out
}
