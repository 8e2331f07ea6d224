package order

import (
	"time"

	"github.com/bakery-bliss/bakery/internal/entity"
)

// Event types published on the order topic.
const (
	EventOrderCreated  = "order.created"
	EventStatusChanged = "order.status_changed"
	EventAssigned      = "order.assigned"
	EventOverdue       = "order.overdue"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	OrderID       int64      `json:"orderId"`
	OrderNumber   string     `json:"orderNumber"`
	OldStatus     string     `json:"oldStatus,omitempty"`
	NewStatus     string     `json:"newStatus"`
	ActorID       *int64     `json:"actorId,omitempty"`
	ActorRole     string     `json:"actorRole,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	CustomerID    int64      `json:"customerId"`
	MainBakerID   *int64     `json:"mainBakerId,omitempty"`
	JuniorBakerID *int64     `json:"juniorBakerId,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	At            time.Time  `json:"at"`
}

func newOrderEvent(o *entity.Order, oldStatus string, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		OldStatus:     oldStatus,
		NewStatus:     o.Status,
		CustomerID:    o.CustomerID,
		MainBakerID:   o.MainBakerID,
		JuniorBakerID: o.JuniorBakerID,
		Deadline:      o.Deadline,
		At:            at,
	}
}
