package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

type ProductLookup interface {
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
}

// CoalescingLookup merges concurrent lookups of the same product into one
// backend call. Nothing is cached, so stock is always read fresh.
type CoalescingLookup struct {
	next ProductLookup
	sfg  singleflight.Group
}

func NewCoalescingLookup(next ProductLookup) *CoalescingLookup {
	return &CoalescingLookup{next: next}
}

func (c *CoalescingLookup) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	v, err, _ := c.sfg.Do(productID, func() (interface{}, error) {
		return c.next.GetByID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	p, _ := v.(*domain.Product)
	if p == nil {
		return nil, notFound(productID)
	}
	cp := *p
	return &cp, nil
}
