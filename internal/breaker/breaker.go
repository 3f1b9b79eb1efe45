// Package breaker wraps the remote catalog and order store in circuit
// breakers so a failing backend is cut off instead of tying up checkouts.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrOpen is returned while a breaker rejects calls.
var ErrOpen = errors.New("backend unavailable")

type Settings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ConsecutiveFails uint32
}

func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		ConsecutiveFails: 5,
	}
}

type ProductLookup interface {
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

// Lookup guards a ProductLookup. A missing product is a business answer and
// does not count as a failure.
type Lookup struct {
	next ProductLookup
	cb   *gobreaker.CircuitBreaker[*domain.Product]
}

func NewLookup(next ProductLookup, s Settings, log *zap.Logger) *Lookup {
	return &Lookup{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*domain.Product](settings("product-lookup", s, log)),
	}
}

func (l *Lookup) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := l.cb.Execute(func() (*domain.Product, error) {
		return l.next.GetByID(ctx, productID)
	})
	return p, translate(err)
}

func (l *Lookup) State() gobreaker.State {
	return l.cb.State()
}

// Orders guards an OrderStore. Writes and reads share one breaker since
// they hit the same database.
type Orders struct {
	next OrderStore
	cb   *gobreaker.CircuitBreaker[[]*domain.Order]
}

func NewOrders(next OrderStore, s Settings, log *zap.Logger) *Orders {
	return &Orders{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]*domain.Order](settings("order-store", s, log)),
	}
}

func (o *Orders) Create(ctx context.Context, order *domain.Order) error {
	_, err := o.cb.Execute(func() ([]*domain.Order, error) {
		return nil, o.next.Create(ctx, order)
	})
	return translate(err)
}

func (o *Orders) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	orders, err := o.cb.Execute(func() ([]*domain.Order, error) {
		return o.next.ListByOwner(ctx, ownerID)
	})
	return orders, translate(err)
}

func (o *Orders) State() gobreaker.State {
	return o.cb.State()
}

func settings(name string, s Settings, log *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isSuccessful,
	}
}

// isSuccessful keeps business errors and caller cancellation from tripping
// the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, context.Canceled)
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrOpen, err)
	}
	return err
}
