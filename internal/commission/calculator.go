package commission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bakery-bliss/bakery/internal/workflow"
)

// Money amounts are rounded half away from zero to this many decimal places.
const moneyPlaces = 2

var (
	ErrUnsupportedRole = errors.New("commission is only paid to junior and main bakers")
	ErrNegativeTotal   = errors.New("order total must not be negative")
	ErrInvalidRate     = errors.New("commission rate must be between 0 and 1")
)

// Rates are the configured commission percentages expressed as fractions.
type Rates struct {
	JuniorBaker decimal.Decimal
	MainBaker   decimal.Decimal
	RushBonus   decimal.Decimal
}

// DefaultRates returns 15% junior, 20% main baker and a 10% rush bonus.
func DefaultRates() Rates {
	return Rates{
		JuniorBaker: decimal.RequireFromString("0.15"),
		MainBaker:   decimal.RequireFromString("0.20"),
		RushBonus:   decimal.RequireFromString("0.10"),
	}
}

// Breakdown is the earning of one baker for one order.
type Breakdown struct {
	Role        workflow.Role
	Rate        decimal.Decimal
	BaseAmount  decimal.Decimal
	BonusAmount decimal.Decimal
	TotalAmount decimal.Decimal
}

// Calculator computes baker commissions.
type Calculator struct {
	rates Rates
}

// NewCalculator validates rates and returns a Calculator.
func NewCalculator(rates Rates) (*Calculator, error) {
	one := decimal.NewFromInt(1)
	for name, r := range map[string]decimal.Decimal{
		"junior_baker": rates.JuniorBaker,
		"main_baker":   rates.MainBaker,
		"rush_bonus":   rates.RushBonus,
	} {
		if r.IsNegative() || r.GreaterThan(one) {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidRate, name, r)
		}
	}
	return &Calculator{rates: rates}, nil
}

// Rates returns the configured rates.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// Rate returns the base commission rate for role.
func (c *Calculator) Rate(role workflow.Role) (decimal.Decimal, error) {
	switch role {
	case workflow.RoleJuniorBaker:
		return c.rates.JuniorBaker, nil
	case workflow.RoleMainBaker:
		return c.rates.MainBaker, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedRole, role)
	}
}

// Calculate returns base = total*rate, bonus = rush ? base*rushBonus : 0 and their sum.
// Base and bonus are each rounded to cents; the sum is exact.
func (c *Calculator) Calculate(orderTotal decimal.Decimal, role workflow.Role, rush bool) (Breakdown, error) {
	if orderTotal.IsNegative() {
		return Breakdown{}, ErrNegativeTotal
	}
	rate, err := c.Rate(role)
	if err != nil {
		return Breakdown{}, err
	}

	base := orderTotal.Mul(rate).Round(moneyPlaces)
	bonus := decimal.Zero
	if rush {
		bonus = base.Mul(c.rates.RushBonus).Round(moneyPlaces)
	}

	return Breakdown{
		Role:        role,
		Rate:        rate,
		BaseAmount:  base,
		BonusAmount: bonus,
		TotalAmount: base.Add(bonus),
	}, nil
}

// Percentage returns rate as a percentage value, e.g. 0.15 -> 15.
func Percentage(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(100))
}
