package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidRules = errors.New("invalid pricing rules")

// Rules are the money constants the storefront is configured with.
type Rules struct {
	ShippingThreshold decimal.Decimal
	ShippingFee       decimal.Decimal
	TaxRate           decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		ShippingThreshold: decimal.NewFromInt(99),
		ShippingFee:       decimal.NewFromInt(10),
		TaxRate:           decimal.RequireFromString("0.08"),
	}
}

func (r Rules) Validate() error {
	if r.ShippingThreshold.IsNegative() || r.ShippingFee.IsNegative() {
		return errors.Join(ErrInvalidRules, errors.New("shipping threshold and fee must not be negative"))
	}
	if r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Join(ErrInvalidRules, errors.New("tax rate must be within [0, 1]"))
	}
	return nil
}

// Shipping is free once subtotal reaches the threshold.
func (r Rules) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(r.ShippingThreshold) {
		return decimal.Zero
	}
	return r.ShippingFee
}

// Tax applies the flat rate to the subtotal before any discount.
func (r Rules) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(r.TaxRate)
}
