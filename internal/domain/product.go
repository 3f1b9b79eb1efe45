package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageRef    string          `json:"image"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"category_id"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
}
