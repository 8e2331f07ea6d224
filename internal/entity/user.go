package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a registered account. Role is one of customer, junior_baker, main_baker, admin.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Role      string    `bun:"role,notnull" json:"role"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}

// BakerTeam links a junior baker to the main baker that supervises them.
type BakerTeam struct {
	bun.BaseModel `bun:"table:baker_teams"`

	ID            int64     `bun:",pk,autoincrement" json:"id"`
	MainBakerID   int64     `bun:"main_baker_id,notnull" json:"main_baker_id"`
	JuniorBakerID int64     `bun:"junior_baker_id,notnull" json:"junior_baker_id"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
