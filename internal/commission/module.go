package commission

import (
	"go.uber.org/fx"

	"github.com/bakery-bliss/bakery/internal/config"
)

// Module provides the commission calculator to Fx.
var Module = fx.Provide(NewFromConfig)

// NewFromConfig builds a Calculator from the configured commission rates.
func NewFromConfig(cfg config.Config) (*Calculator, error) {
	return NewCalculator(Rates{
		JuniorBaker: cfg.Commission.JuniorRate,
		MainBaker:   cfg.Commission.MainRate,
		RushBonus:   cfg.Commission.RushBonusRate,
	})
}
