package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// MockPersistence keeps the cart in memory. Like the database-backed stores,
// Save fails once ctx is done.
type MockPersistence struct {
	mu      sync.Mutex
	Stored  []domain.LineItem
	SaveErr error
}

func (m *MockPersistence) Load(context.Context) ([]domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CopyItems(m.Stored), nil
}

func (m *MockPersistence) Save(ctx context.Context, items []domain.LineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Stored = domain.CopyItems(items)
	return nil
}

// MockProductLookup serves products from a map and counts calls. When Block
// is set, calls for BlockID (or every call when BlockID is empty) wait for it
// to close first.
type MockProductLookup struct {
	mu       sync.Mutex
	Products map[string]*domain.Product
	Err      error
	Calls    []string
	Block    chan struct{}
	BlockID  string
}

func (m *MockProductLookup) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, productID)
	block := m.Block
	if m.BlockID != "" && m.BlockID != productID {
		block = nil
	}
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *MockProductLookup) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockProductLookup) SetStock(productID string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[productID].Stock = stock
}

// MockOrderStore captures submitted orders. OnCreate runs before each one is
// recorded.
type MockOrderStore struct {
	mu       sync.Mutex
	Orders   []*domain.Order
	Err      error
	Created  int
	OnCreate func()
}

func (m *MockOrderStore) Create(_ context.Context, order *domain.Order) error {
	if m.OnCreate != nil {
		m.OnCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created++
	if m.Err != nil {
		return m.Err
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *MockOrderStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Created
}

type MockUser struct {
	UserID string
}

func (m MockUser) IsAuthenticated(context.Context) bool { return m.UserID != "" }

func (m MockUser) ID(context.Context) string { return m.UserID }

type MockNotifier struct {
	mu   sync.Mutex
	Sent []domain.Notification
}

func (m *MockNotifier) Notify(_ context.Context, message string, severity domain.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, domain.Notification{Message: message, Severity: severity})
}

func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
}

func (m *MockNotifier) All() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.Sent))
	copy(out, m.Sent)
	return out
}
