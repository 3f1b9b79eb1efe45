package checkout

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
)

// Cart is the part of the cart store checkout depends on.
type Cart interface {
	Items() []domain.LineItem
	ItemCount() int
	Rules() pricing.Rules
	RemoveOrdered(ctx context.Context, ordered []domain.LineItem) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
}

type CurrentUser interface {
	IsAuthenticated(ctx context.Context) bool
	ID(ctx context.Context) string
}

type Notifier interface {
	Notify(ctx context.Context, message string, severity domain.Severity)
}
