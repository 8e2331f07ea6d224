package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakery-bliss/bakery/internal/entity"
)

// EarningResponse is one commission record.
type EarningResponse struct {
	OrderID     int64           `json:"order_id"`
	RoleInOrder string          `json:"role_in_order"`
	Percentage  decimal.Decimal `json:"percentage"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	BonusAmount decimal.Decimal `json:"bonus_amount"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EarningSummaryResponse aggregates a baker's earnings.
type EarningSummaryResponse struct {
	BakerID     int64           `json:"baker_id"`
	Orders      int             `json:"orders"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	BonusAmount decimal.Decimal `json:"bonus_amount"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewEarningResponses converts earning rows.
func NewEarningResponses(rows []*entity.BakerEarning) []EarningResponse {
	out := make([]EarningResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, EarningResponse{
			OrderID:     e.OrderID,
			RoleInOrder: e.RoleInOrder,
			Percentage:  e.Percentage,
			BaseAmount:  e.BaseAmount,
			BonusAmount: e.BonusAmount,
			Amount:      e.Amount,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
