package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrderLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderLister
	user    checkout.CurrentUser
	timeout time.Duration
}

func NewOrdersHandler(orders OrderLister, user checkout.CurrentUser, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		user:    user,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.user.IsAuthenticated(ctx) {
		respondError(w, r, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	orders, err := h.orders.ListByOwner(ctx, h.user.ID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respond(w, r, http.StatusOK, orders)
}
