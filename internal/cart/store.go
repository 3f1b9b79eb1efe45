package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgItemAdded     = "item added to cart"
	msgItemRemoved   = "item removed from cart"
	msgCartCleared   = "cart cleared"
	msgInvalidCoupon = "invalid coupon code"
	msgEmptyCoupon   = "please enter a coupon code"
)

// Store owns the ordered line items of one cart. All exported methods are
// safe for concurrent use; every mutation is persisted before it returns.
type Store struct {
	mu       sync.Mutex
	items    []domain.LineItem
	coupon   *pricing.Coupon
	watchers []func()

	persistence Persistence
	products    ProductLookup
	notifier    Notifier
	rules       pricing.Rules
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Store)

func WithRules(rules pricing.Rules) Option {
	return func(s *Store) { s.rules = rules }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore builds a store and loads its state from persistence. A cart that
// cannot be loaded starts empty.
func NewStore(ctx context.Context, persistence Persistence, products ProductLookup, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		persistence: persistence,
		products:    products,
		notifier:    notifier,
		rules:       pricing.DefaultRules(),
		log:         zap.NewNop(),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := persistence.Load(ctx)
	if err != nil {
		logger.FromContext(ctx, s.log).Warn("cart load failed, starting empty", zap.Error(err))
		items = nil
	}
	s.items = sanitize(items)
	return s
}

// sanitize restores the one-item-per-product and quantity >= 1 invariants on
// data read back from storage.
func sanitize(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

func (s *Store) Add(ctx context.Context, productID string, quantity int) error {
	err := s.add(ctx, productID, quantity)
	if err != nil {
		s.notifier.Notify(ctx, addFailureMessage(err), domain.SeverityError)
		return err
	}
	s.notifier.Notify(ctx, msgItemAdded, domain.SeverityInfo)
	s.changed()
	return nil
}

func (s *Store) add(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product %s: %w", productID, err)
	}
	if product == nil {
		return fmt.Errorf("lookup product %s: %w", productID, domain.ErrProductNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := domain.CopyItems(s.items)
	if i := indexByProduct(next, productID); i >= 0 {
		newQuantity := next[i].Quantity + quantity
		if newQuantity > product.Stock {
			return &domain.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
		}
		next[i].Quantity = newQuantity
		next[i].UpdatedAt = now
	} else {
		next = append(next, domain.LineItem{
			ID:        s.newID(),
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			ImageRef:  product.ImageRef,
			Quantity:  quantity,
			AddedAt:   now,
			UpdatedAt: now,
		})
	}
	return s.commit(ctx, next)
}

func addFailureMessage(err error) string {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error()
	case errors.Is(err, domain.ErrProductNotFound):
		return "product not found"
	default:
		return "failed to add item to cart"
	}
}

// Remove drops the line item with the given id. Unknown ids are not an error.
func (s *Store) Remove(ctx context.Context, lineItemID string) error {
	s.mu.Lock()
	next := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != lineItemID {
			next = append(next, item)
		}
	}
	err := s.commit(ctx, next)
	s.mu.Unlock()

	if err != nil {
		s.notifier.Notify(ctx, "failed to remove item", domain.SeverityError)
		return err
	}
	s.notifier.Notify(ctx, msgItemRemoved, domain.SeverityInfo)
	s.changed()
	return nil
}

// UpdateQuantity sets the quantity of a line item, clamping it to at least 1.
// Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, lineItemID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	next := domain.CopyItems(s.items)
	i := indexByID(next, lineItemID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	next[i].Quantity = quantity
	next[i].UpdatedAt = s.now()
	err := s.commit(ctx, next)
	s.mu.Unlock()

	if err != nil {
		s.notifier.Notify(ctx, "failed to update quantity", domain.SeverityError)
		return err
	}
	s.changed()
	return nil
}

// Clear empties the cart on user request.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.Reset(ctx); err != nil {
		s.notifier.Notify(ctx, "failed to clear cart", domain.SeverityError)
		return err
	}
	s.notifier.Notify(ctx, msgCartCleared, domain.SeverityInfo)
	return nil
}

// Reset empties the cart without raising a notification.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	err := s.commit(ctx, []domain.LineItem{})
	if err == nil {
		s.coupon = nil
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// RemoveOrdered takes the ordered line items out of the cart without raising a
// notification. Items are matched by id and lose only the ordered quantity, so
// anything added or raised after the order snapshot stays. The coupon is
// dropped only when the cart ends up empty.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []domain.LineItem) error {
	orderedQty := make(map[string]int, len(ordered))
	for _, item := range ordered {
		orderedQty[item.ID] += item.Quantity
	}

	s.mu.Lock()
	next := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		qty, ok := orderedQty[item.ID]
		if !ok {
			next = append(next, item)
			continue
		}
		if remaining := item.Quantity - qty; remaining > 0 {
			item.Quantity = remaining
			next = append(next, item)
		}
	}
	err := s.commit(ctx, next)
	if err == nil && len(next) == 0 {
		s.coupon = nil
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// commit persists next and only then makes it the in-memory state. Callers
// hold s.mu.
func (s *Store) commit(ctx context.Context, next []domain.LineItem) error {
	if err := s.persistence.Save(ctx, next); err != nil {
		logger.FromContext(ctx, s.log).Error("cart save failed", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.items = next
	return nil
}

// ItemCount is the sum of all quantities, not the number of line items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the line items, oldest first.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CopyItems(s.items)
}

func (s *Store) Totals() domain.Totals {
	return pricing.ComputeTotals(s.Items(), s.rules)
}

func (s *Store) Rules() pricing.Rules {
	return s.rules
}

// ApplyCoupon validates code and records the coupon on success. The recorded
// rate does not change Totals.
func (s *Store) ApplyCoupon(ctx context.Context, code string) bool {
	if strings.TrimSpace(code) == "" {
		s.notifier.Notify(ctx, msgEmptyCoupon, domain.SeverityError)
		return false
	}

	c, ok := pricing.LookupCoupon(code)
	if !ok {
		s.notifier.Notify(ctx, msgInvalidCoupon, domain.SeverityError)
		return false
	}

	s.mu.Lock()
	s.coupon = &c
	s.mu.Unlock()

	s.notifier.Notify(ctx, fmt.Sprintf("coupon applied, you save %s%%", c.Percent().String()), domain.SeverityInfo)
	s.changed()
	return true
}

// AppliedCoupon returns the last successfully applied coupon, if any.
func (s *Store) AppliedCoupon() (pricing.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return pricing.Coupon{}, false
	}
	return *s.coupon, true
}

// OnChange registers fn to run after every successful mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Store) changed() {
	s.mu.Lock()
	watchers := make([]func(), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn()
	}
}

func indexByProduct(items []domain.LineItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func indexByID(items []domain.LineItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
