package workflow

import (
	"fmt"
	"strings"
)

// Role identifies what an actor is allowed to do.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleJuniorBaker Role = "junior_baker"
	RoleMainBaker   Role = "main_baker"
	RoleAdmin       Role = "admin"
	// RoleSystem is the automated fulfillment signal (CLI, jobs). It is never assigned to a user.
	RoleSystem Role = "system"
)

// ParseRole validates a role stored on a user record.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleCustomer, RoleJuniorBaker, RoleMainBaker, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

// IsBaker reports whether r is a junior or main baker.
func (r Role) IsBaker() bool {
	return r == RoleJuniorBaker || r == RoleMainBaker
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// System returns the actor used for automated fulfillment signals.
func System() Actor {
	return Actor{Role: RoleSystem}
}

// Assignment captures who owns and works on an order. Zero IDs mean unassigned.
type Assignment struct {
	CustomerID    int64
	MainBakerID   int64
	JuniorBakerID int64
}

// HasMainBaker reports whether a main baker owns the order.
func (a Assignment) HasMainBaker() bool { return a.MainBakerID != 0 }

// HasJuniorBaker reports whether a junior baker works the order.
func (a Assignment) HasJuniorBaker() bool { return a.JuniorBakerID != 0 }

// CanView reports whether actor may read the order at all.
func (a Assignment) CanView(actor Actor) bool {
	switch actor.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleCustomer:
		return actor.UserID == a.CustomerID
	case RoleMainBaker:
		return a.HasMainBaker() && actor.UserID == a.MainBakerID
	case RoleJuniorBaker:
		return a.HasJuniorBaker() && actor.UserID == a.JuniorBakerID
	default:
		return false
	}
}
