package cart

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Persistence is the durable storage behind one cart. Load is called once when
// the store is built; Save receives the full item list after every mutation.
type Persistence interface {
	Load(ctx context.Context) ([]domain.LineItem, error)
	Save(ctx context.Context, items []domain.LineItem) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string, severity domain.Severity)
}
