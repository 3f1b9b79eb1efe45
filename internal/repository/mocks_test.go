package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type MockPersistence struct {
	Stored  []domain.LineItem
	LoadErr error
	SaveErr error
	Loads   int
	Saves   int
}

func (m *MockPersistence) Load(context.Context) ([]domain.LineItem, error) {
	m.Loads++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return domain.CopyItems(m.Stored), nil
}

func (m *MockPersistence) Save(_ context.Context, items []domain.LineItem) error {
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Stored = domain.CopyItems(items)
	return nil
}

// MockLookup blocks every call on Release when it is set.
type MockLookup struct {
	mu       sync.Mutex
	Products map[string]*domain.Product
	Release  chan struct{}
	Started  chan struct{}
	calls    atomic.Int32
}

func (m *MockLookup) GetByID(_ context.Context, productID string) (*domain.Product, error) {
	m.calls.Add(1)
	if m.Started != nil {
		select {
		case m.Started <- struct{}{}:
		default:
		}
	}
	if m.Release != nil {
		<-m.Release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[productID]
	if !ok {
		return nil, notFound(productID)
	}
	return p, nil
}

func (m *MockLookup) Calls() int {
	return int(m.calls.Load())
}

func sampleItems() []domain.LineItem {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return []domain.LineItem{
		{
			ID:        "item-1",
			ProductID: "1",
			Name:      "Smartphone Pro Max",
			UnitPrice: decimal.RequireFromString("4999"),
			ImageRef:  "phone.jpg",
			Quantity:  1,
			AddedAt:   at,
			UpdatedAt: at,
		},
		{
			ID:        "item-2",
			ProductID: "6",
			Name:      "Yoga Mat",
			UnitPrice: decimal.RequireFromString("89.99"),
			ImageRef:  "mat.jpg",
			Quantity:  3,
			AddedAt:   at,
			UpdatedAt: at.Add(time.Minute),
		},
	}
}

// assertSameItems compares money by value and times by instant.
func assertSameItems(t *testing.T, want, got []domain.LineItem) {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return
	}
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].ProductID, got[i].ProductID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "price %s != %s", want[i].UnitPrice, got[i].UnitPrice)
		assert.Equal(t, want[i].ImageRef, got[i].ImageRef)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].AddedAt.Equal(got[i].AddedAt))
		assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt))
	}
}
