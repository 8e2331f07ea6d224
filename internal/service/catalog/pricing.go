package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minLayers = 1
	maxLayers = 5
)

// ErrInvalidCake is returned for cake designs that cannot be priced.
var ErrInvalidCake = errors.New("invalid custom cake")

var (
	sizeBase = map[string]decimal.Decimal{
		"small":  decimal.RequireFromString("25.00"),
		"medium": decimal.RequireFromString("40.00"),
		"large":  decimal.RequireFromString("60.00"),
	}
	extraLayer = decimal.RequireFromString("8.00")
)

// CakeSpec is a customer-designed cake.
type CakeSpec struct {
	Size     string
	Flavor   string
	Frosting string
	Layers   int
	Message  string
}

// Normalize trims fields and lower-cases the size.
func (c CakeSpec) Normalize() CakeSpec {
	c.Size = strings.ToLower(strings.TrimSpace(c.Size))
	c.Flavor = strings.TrimSpace(c.Flavor)
	c.Frosting = strings.TrimSpace(c.Frosting)
	c.Message = strings.TrimSpace(c.Message)
	return c
}

// PriceCustomCake returns the size base price plus 8.00 per layer beyond the first.
func PriceCustomCake(spec CakeSpec) (decimal.Decimal, error) {
	spec = spec.Normalize()
	base, ok := sizeBase[spec.Size]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown size %q", ErrInvalidCake, spec.Size)
	}
	if spec.Flavor == "" {
		return decimal.Zero, fmt.Errorf("%w: flavor is required", ErrInvalidCake)
	}
	if spec.Layers < minLayers || spec.Layers > maxLayers {
		return decimal.Zero, fmt.Errorf("%w: layers must be between %d and %d", ErrInvalidCake, minLayers, maxLayers)
	}
	return base.Add(extraLayer.Mul(decimal.NewFromInt(int64(spec.Layers - 1)))), nil
}
