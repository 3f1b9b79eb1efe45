package pricing

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeTotals derives every money field from items in one pass so that
// shipping can never disagree with the subtotal it was computed from.
//
// Discount is always zero: an applied coupon is recorded by the cart but does
// not reach the totals.
func ComputeTotals(items []domain.LineItem, rules Rules) domain.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	shipping := rules.Shipping(subtotal)
	tax := rules.Tax(subtotal)
	discount := decimal.Zero

	return domain.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax).Sub(discount),
	}
}
