package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product's presence in a cart. UnitPrice is captured when the
// product is first added and is not refreshed afterwards.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CopyItems returns a copy of items that shares no backing array with the input.
func CopyItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
