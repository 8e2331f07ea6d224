package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product is a catalog item owned by a main baker.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64           `bun:",pk,autoincrement" json:"id"`
	MainBakerID int64           `bun:"main_baker_id,notnull" json:"main_baker_id"`
	Name        string          `bun:"name,notnull" json:"name"`
	Description string          `bun:"description" json:"description"`
	Category    string          `bun:"category,notnull" json:"category"`
	Price       decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	IsAvailable bool            `bun:"is_available,notnull" json:"is_available"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero" json:"updated_at"`
}

// CustomCake is a customer-designed cake ordered as a single line item.
type CustomCake struct {
	bun.BaseModel `bun:"table:custom_cakes"`

	ID         int64           `bun:",pk,autoincrement" json:"id"`
	CustomerID int64           `bun:"customer_id,notnull" json:"customer_id"`
	Size       string          `bun:"size,notnull" json:"size"`
	Flavor     string          `bun:"flavor,notnull" json:"flavor"`
	Frosting   string          `bun:"frosting" json:"frosting"`
	Layers     int             `bun:"layers,notnull" json:"layers"`
	Message    string          `bun:"message" json:"message"`
	Price      decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	CreatedAt  time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
