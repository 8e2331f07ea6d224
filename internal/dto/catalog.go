package dto

import "github.com/shopspring/decimal"

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	MainBakerID *int64          `json:"main_baker_id,omitempty"`
}

// CustomCakeRequest describes a cake designed by the customer.
type CustomCakeRequest struct {
	Size     string `json:"size"`
	Flavor   string `json:"flavor"`
	Frosting string `json:"frosting"`
	Layers   int    `json:"layers"`
	Message  string `json:"message"`
}
