package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// BakerApplication is a request to change role, reviewed exactly once.
type BakerApplication struct {
	bun.BaseModel `bun:"table:baker_applications"`

	ID                int64      `bun:",pk,autoincrement" json:"id"`
	UserID            int64      `bun:"user_id,notnull" json:"user_id"`
	CurrentRole       string     `bun:"from_role,notnull" json:"current_role"`
	RequestedRole     string     `bun:"requested_role,notnull" json:"requested_role"`
	TargetMainBakerID *int64     `bun:"target_main_baker_id" json:"target_main_baker_id,omitempty"`
	Reason            string     `bun:"reason,notnull" json:"reason"`
	Status            string     `bun:"status,notnull" json:"status"`
	ReviewerID        *int64     `bun:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewNote        string     `bun:"review_note" json:"review_note,omitempty"`
	ReviewedAt        *time.Time `bun:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
