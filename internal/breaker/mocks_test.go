package breaker

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type MockLookup struct {
	Product *domain.Product
	Err     error
	Calls   int
}

func (m *MockLookup) GetByID(context.Context, string) (*domain.Product, error) {
	m.Calls++
	return m.Product, m.Err
}

type MockOrderStore struct {
	Orders    []*domain.Order
	CreateErr error
	ListErr   error
	Calls     int
}

func (m *MockOrderStore) Create(_ context.Context, order *domain.Order) error {
	m.Calls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *MockOrderStore) ListByOwner(context.Context, string) ([]*domain.Order, error) {
	m.Calls++
	return m.Orders, m.ListErr
}
