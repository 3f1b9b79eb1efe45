package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MockPersistence struct {
	mu    sync.Mutex
	Items []domain.LineItem
}

func (m *MockPersistence) Load(context.Context) ([]domain.LineItem, error) {
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

type MockCatalog struct {
	mu       sync.Mutex
	Products map[string]*domain.Product
	Err      error
}

func (m *MockCatalog) GetByID(_ context.Context, productID string) (*domain.Product, error) {
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

type MockOrderStore struct {
	mu        sync.Mutex
	Orders    []*domain.Order
	CreateErr error
	ListErr   error
}

func (m *MockOrderStore) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *MockOrderStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Order
	for _, o := range m.Orders {
		if o.OwnerID == ownerID {
			out = append(out, o)
		}
	}
	return out, nil
}

type testServer struct {
	catalog  *MockCatalog
	orders   *MockOrderStore
	sessions *session.Manager
	carts    map[string]*MockPersistence
	mu       sync.Mutex
}

func newTestServer() *testServer {
	ts := &testServer{
		catalog: &MockCatalog{Products: map[string]*domain.Product{
			"1": {ID: "1", Name: "Smartphone Pro Max", UnitPrice: decimal.NewFromInt(4999), Stock: 50},
			"6": {ID: "6", Name: "Yoga Mat", UnitPrice: decimal.NewFromInt(89), Stock: 3},
		}},
		orders: &MockOrderStore{},
		carts:  make(map[string]*MockPersistence),
	}
	ts.sessions = session.NewManager(
		ts.open,
		ts.catalog,
		ts.orders,
		ContextUser{},
		notify.NewLogNotifier(zap.NewNop()),
		session.Config{Rules: pricing.DefaultRules(), RequestTimeout: time.Second},
		zap.NewNop(),
	)
	return ts
}

func (ts *testServer) open(sessionID string) (cart.Persistence, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.carts[sessionID]
	if !ok {
		p = &MockPersistence{}
		ts.carts[sessionID] = p
	}
	return p, nil
}
