package session

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type MockPersistence struct {
	mu    sync.Mutex
	Items []domain.LineItem
	Delay time.Duration
}

func (m *MockPersistence) Load(context.Context) ([]domain.LineItem, error) {
	time.Sleep(m.Delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CopyItems(m.Items), nil
}

func (m *MockPersistence) Save(_ context.Context, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = domain.CopyItems(items)
	return nil
}

type MockProductLookup struct{}

func (MockProductLookup) GetByID(_ context.Context, productID string) (*domain.Product, error) {
	return &domain.Product{ID: productID, Name: "Yoga Mat", UnitPrice: decimal.NewFromInt(89), Stock: 10}, nil
}

type MockOrderStore struct {
	mu     sync.Mutex
	Orders []*domain.Order
}

func (m *MockOrderStore) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = append(m.Orders, order)
	return nil
}

type MockUser struct{}

func (MockUser) IsAuthenticated(context.Context) bool { return true }
func (MockUser) ID(context.Context) string            { return "user-1" }

type MockNotifier struct{}

func (MockNotifier) Notify(context.Context, string, domain.Severity) {}
