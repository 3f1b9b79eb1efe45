// Package session keeps one cart and one checkout engine per browser
// session, built on first use.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const loadTimeout = 5 * time.Second

// PersistenceFactory opens the cart storage of one session.
type PersistenceFactory func(sessionID string) (cart.Persistence, error)

type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
}

type Config struct {
	Rules          pricing.Rules
	RequestTimeout time.Duration
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	sfg      singleflight.Group

	newPersistence PersistenceFactory
	products       cart.ProductLookup
	orders         checkout.OrderStore
	user           checkout.CurrentUser
	notifier       cart.Notifier
	cfg            Config
	log            *zap.Logger
}

func NewManager(
	newPersistence PersistenceFactory,
	products cart.ProductLookup,
	orders checkout.OrderStore,
	user checkout.CurrentUser,
	notifier cart.Notifier,
	cfg Config,
	log *zap.Logger,
) *Manager {
	return &Manager{
		sessions:       make(map[string]*Session),
		newPersistence: newPersistence,
		products:       products,
		orders:         orders,
		user:           user,
		notifier:       notifier,
		cfg:            cfg,
		log:            log,
	}
}

// Get returns the session, loading its cart the first time it is seen.
// Concurrent first requests for one id share a single load.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if s, ok := m.lookup(sessionID); ok {
		return s, nil
	}

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		if s, ok := m.lookup(sessionID); ok {
			return s, nil
		}
		s, err := m.build(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.sessions[sessionID] = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Len reports how many sessions are loaded.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *Manager) build(ctx context.Context, sessionID string) (*Session, error) {
	p, err := m.newPersistence(sessionID)
	if err != nil {
		return nil, fmt.Errorf("open cart of session %s: %w", sessionID, err)
	}

	// the cart outlives the request that first touched it
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	log := m.log.With(zap.String("session_id", sessionID))
	store := cart.NewStore(loadCtx, p, m.products, m.notifier,
		cart.WithRules(m.cfg.Rules),
		cart.WithLogger(log),
	)
	orchestrator := checkout.NewOrchestrator(
		store,
		checkout.NewProductHandler(m.products, m.cfg.RequestTimeout),
		checkout.NewOrderHandler(m.orders, m.cfg.RequestTimeout),
		m.user,
		m.notifier,
		checkout.WithLogger(log),
	)

	logger.FromContext(ctx, log).Info("session loaded", zap.Int("items", store.ItemCount()))
	return &Session{ID: sessionID, Cart: store, Checkout: orchestrator}, nil
}
