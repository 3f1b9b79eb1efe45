package checkout

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ProductHandler bounds every product lookup made during checkout.
type ProductHandler struct {
	lookup  ProductLookup
	timeout time.Duration
}

func NewProductHandler(lookup ProductLookup, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		lookup:  lookup,
		timeout: timeout,
	}
}

func (h *ProductHandler) get(ctx context.Context, productID string) (*domain.Product, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.lookup.GetByID(lookupCtx, productID)
}

// OrderHandler bounds order submission.
type OrderHandler struct {
	store   OrderStore
	timeout time.Duration
}

func NewOrderHandler(store OrderStore, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		store:   store,
		timeout: timeout,
	}
}

func (h *OrderHandler) create(ctx context.Context, order *domain.Order) error {
	createCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.store.Create(createCtx, order)
}
