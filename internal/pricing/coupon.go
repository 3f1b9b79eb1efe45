package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	Code string
	Rate decimal.Decimal
}

// Percent is the rate expressed for humans, e.g. 15 for 0.15.
func (c Coupon) Percent() decimal.Decimal {
	return c.Rate.Mul(decimal.NewFromInt(100))
}

var coupons = map[string]decimal.Decimal{
	"SAVE10":  decimal.RequireFromString("0.10"),
	"SAVE20":  decimal.RequireFromString("0.20"),
	"NEWUSER": decimal.RequireFromString("0.15"),
}

// LookupCoupon matches code case-insensitively against the static table.
func LookupCoupon(code string) (Coupon, bool) {
	key := strings.ToUpper(strings.TrimSpace(code))
	rate, ok := coupons[key]
	if !ok {
		return Coupon{}, false
	}
	return Coupon{Code: key, Rate: rate}, true
}
