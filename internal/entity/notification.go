package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification is a message for a user about one of their orders.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        int64      `bun:",pk,autoincrement" json:"id"`
	UserID    int64      `bun:"user_id,notnull" json:"user_id"`
	OrderID   int64      `bun:"order_id,notnull" json:"order_id"`
	Kind      string     `bun:"kind,notnull" json:"kind"`
	Message   string     `bun:"message,notnull" json:"message"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	ReadAt    *time.Time `bun:"read_at" json:"read_at,omitempty"`
}
