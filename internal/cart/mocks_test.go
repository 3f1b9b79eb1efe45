package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// MockPersistence records every save and can be told to fail.
type MockPersistence struct {
	mu      sync.Mutex
	Stored  []domain.LineItem
	LoadErr error
	SaveErr error
	Saves   int
}

func (m *MockPersistence) Load(context.Context) ([]domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return domain.CopyItems(m.Stored), nil
}

func (m *MockPersistence) Save(_ context.Context, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Stored = domain.CopyItems(items)
	return nil
}

func (m *MockPersistence) Snapshot() []domain.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CopyItems(m.Stored)
}

// MockProductLookup serves products from a map.
type MockProductLookup struct {
	Products map[string]*domain.Product
	Err      error
	Calls    int
}

func (m *MockProductLookup) GetByID(_ context.Context, productID string) (*domain.Product, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// MockNotifier captures notifications in order.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []domain.Notification
}

func (m *MockNotifier) Notify(_ context.Context, message string, severity domain.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, domain.Notification{Message: message, Severity: severity})
}

func (m *MockNotifier) Count(severity domain.Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Sent {
		if s.Severity == severity {
			n++
		}
	}
	return n
}

func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
}

var errDiskFull = errors.New("disk full")
