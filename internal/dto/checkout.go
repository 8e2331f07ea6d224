package dto

import "time"

// CheckoutRequest is the body of POST /orders.
type CheckoutRequest struct {
	Items    []CheckoutItemRequest `json:"items"`
	Shipping ShippingResponse      `json:"shipping"`
	IsRush   bool                  `json:"is_rush"`
	Deadline *time.Time            `json:"deadline,omitempty"`
}

// CheckoutItemRequest is one cart line: a product or a custom cake.
type CheckoutItemRequest struct {
	ProductID  *int64             `json:"product_id,omitempty"`
	CustomCake *CustomCakeRequest `json:"custom_cake,omitempty"`
	Quantity   int                `json:"quantity"`
}

// StatusRequest is the body of PATCH /orders/:id/status.
type StatusRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// AssignRequest is the body of PATCH /orders/:id/assign.
type AssignRequest struct {
	BakerID int64 `json:"bakerId"`
}

// ReviewRequest is the body of the approve and reject endpoints.
type ReviewRequest struct {
	Feedback string `json:"feedback"`
	Note     string `json:"note"`
}
