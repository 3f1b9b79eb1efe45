package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgOrderCreated      = "order created successfully"
	msgEmptyCart         = "cart is empty"
	msgLoginRequired     = "please log in first"
	msgProductLookup     = "failed to load product information"
	msgStockCheckFailed  = "stock check failed, please retry"
	msgSubmissionFailed  = "checkout failed, please retry"
	msgCheckoutInFlight  = "checkout is already in progress"
	msgIllegalTransition = "checkout failed"

	cleanupTimeout = 5 * time.Second
)

// Orchestrator turns the cart into an order. It validates the cart and stock,
// submits the order, and clears the cart only once the order is recorded.
type Orchestrator struct {
	cart     Cart
	product  *ProductHandler
	orders   *OrderHandler
	user     CurrentUser
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	newID    func() string

	inFlight atomic.Bool

	mu     sync.Mutex
	status domain.CheckoutStatus
	last   domain.CheckoutStatus
}

type Option func(*Orchestrator)

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

func NewOrchestrator(cart Cart, product *ProductHandler, orders *OrderHandler, user CurrentUser, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cart:     cart,
		product:  product,
		orders:   orders,
		user:     user,
		notifier: notifier,
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
		status:   domain.CheckoutStatusIdle,
		last:     domain.CheckoutStatusIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Status is the state of the checkout currently running, IDLE when none is.
func (o *Orchestrator) Status() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastStatus is the terminal state of the most recent checkout.
func (o *Orchestrator) LastStatus() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Checkout runs one checkout. A call made while another is still running
// fails with domain.ErrCheckoutInProgress.
func (o *Orchestrator) Checkout(ctx context.Context) (*domain.Order, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		o.notifier.Notify(ctx, msgCheckoutInFlight, domain.SeverityError)
		return nil, domain.ErrCheckoutInProgress
	}
	defer o.inFlight.Store(false)

	log := logger.FromContext(ctx, o.log)
	order, err := o.run(ctx)
	if err != nil {
		o.notifier.Notify(ctx, failureMessage(err), domain.SeverityError)
		log.Info("checkout failed", zap.String("status", o.LastStatus().String()), zap.Error(err))
		return nil, err
	}

	o.notifier.Notify(ctx, msgOrderCreated, domain.SeverityInfo)
	log.Info("checkout completed", zap.String("order_id", order.ID), zap.String("owner_id", order.OwnerID))
	return order, nil
}

func (o *Orchestrator) run(ctx context.Context) (*domain.Order, error) {
	defer o.finish()

	if err := o.transition(domain.CheckoutStatusValidatingCart); err != nil {
		return nil, err
	}
	items := o.cart.Items()
	if len(items) == 0 || o.cart.ItemCount() == 0 {
		return nil, o.reject(domain.ErrEmptyCart)
	}
	if !o.user.IsAuthenticated(ctx) {
		return nil, o.reject(domain.ErrNotAuthenticated)
	}

	if err := o.transition(domain.CheckoutStatusValidatingStock); err != nil {
		return nil, err
	}
	if err := o.validateStock(ctx, items); err != nil {
		return nil, o.reject(err)
	}

	if err := o.transition(domain.CheckoutStatusSubmitting); err != nil {
		return nil, err
	}
	order := o.buildOrder(ctx, items)
	if err := o.orders.create(ctx, order); err != nil {
		if tErr := o.transition(domain.CheckoutStatusSubmissionFailed); tErr != nil {
			return nil, tErr
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderSubmissionFailed, err)
	}

	o.clearOrdered(ctx, order)
	if err := o.transition(domain.CheckoutStatusCleared); err != nil {
		return nil, err
	}
	return order, nil
}

// clearOrdered removes the ordered items from the cart. It outlives the caller's
// context so a client that disconnects after the order is recorded does not
// leave the items behind for a second order. A failure is logged only: CLEARED
// means the order was recorded, and the cart then keeps its items.
func (o *Orchestrator) clearOrdered(ctx context.Context, order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := o.cart.RemoveOrdered(ctx, order.Items); err != nil {
		logger.FromContext(ctx, o.log).Error("cart cleanup after checkout failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

// validateStock checks items one at a time and stops at the first problem.
func (o *Orchestrator) validateStock(ctx context.Context, items []domain.LineItem) error {
	for _, item := range items {
		product, err := o.product.get(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("check stock of %s: %w", item.ProductID, err)
		}
		if product == nil {
			return fmt.Errorf("check stock of %s: %w", item.ProductID, domain.ErrProductNotFound)
		}
		if product.Stock < item.Quantity {
			return &domain.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
		}
	}
	return nil
}

func (o *Orchestrator) buildOrder(ctx context.Context, items []domain.LineItem) *domain.Order {
	totals := pricing.ComputeTotals(items, o.cart.Rules())
	return &domain.Order{
		ID:        o.newID(),
		OwnerID:   o.user.ID(ctx),
		Items:     domain.CopyItems(items),
		Subtotal:  totals.Subtotal,
		Shipping:  totals.Shipping,
		Discount:  totals.Discount,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Status:    domain.OrderStatusPending,
		CreatedAt: o.now(),
	}
}

func (o *Orchestrator) reject(cause error) error {
	if err := o.transition(domain.CheckoutStatusRejected); err != nil {
		return err
	}
	return cause
}

func (o *Orchestrator) transition(to domain.CheckoutStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !domain.CanTransitionTo(o.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.status, to)
	}
	o.status = to
	if to.IsTerminal() {
		o.last = to
	}
	return nil
}

// finish returns the orchestrator to IDLE whatever the outcome.
func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = domain.CheckoutStatusIdle
}

func failureMessage(err error) string {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return fmt.Sprintf("%s is out of stock, current stock: %d", stockErr.ProductName, stockErr.Available)
	case errors.Is(err, domain.ErrEmptyCart):
		return msgEmptyCart
	case errors.Is(err, domain.ErrNotAuthenticated):
		return msgLoginRequired
	case errors.Is(err, domain.ErrProductNotFound):
		return msgProductLookup
	case errors.Is(err, domain.ErrOrderSubmissionFailed):
		return msgSubmissionFailed
	case errors.Is(err, ErrIllegalTransition):
		return msgIllegalTransition
	default:
		return msgStockCheckFailed
	}
}
