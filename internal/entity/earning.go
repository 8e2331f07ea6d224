package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// BakerEarning is the commission a baker earned on a delivered order. Never mutated.
type BakerEarning struct {
	bun.BaseModel `bun:"table:baker_earnings"`

	ID          int64           `bun:",pk,autoincrement" json:"id"`
	OrderID     int64           `bun:"order_id,notnull" json:"order_id"`
	BakerID     int64           `bun:"baker_id,notnull" json:"baker_id"`
	RoleInOrder string          `bun:"role_in_order,notnull" json:"role_in_order"`
	Percentage  decimal.Decimal `bun:"percentage,type:numeric(5,2),notnull" json:"percentage"`
	BaseAmount  decimal.Decimal `bun:"base_amount,type:numeric(12,2),notnull" json:"base_amount"`
	BonusAmount decimal.Decimal `bun:"bonus_amount,type:numeric(12,2),notnull" json:"bonus_amount"`
	Amount      decimal.Decimal `bun:"amount,type:numeric(12,2),notnull" json:"amount"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
