package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Sessions hands out the per-session cart and checkout engine.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
}

type CartHandler struct {
	sessions Sessions
	timeout  time.Duration
	currency string
}

func NewCartHandler(sessions Sessions, timeout time.Duration, currency string) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		timeout:  timeout,
		currency: currency,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type CouponDTO struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
}

type CartResponseDTO struct {
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Totals    domain.Totals     `json:"totals"`
	Currency  string            `json:"currency"`
	Coupon    *CouponDTO        `json:"coupon,omitempty"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, h.view(s))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	// quantities below one are clamped by the cart
	if err := s.Cart.Add(ctx, req.ProductID, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, h.view(s))
}

// PUT /api/v1/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cart.UpdateQuantity(ctx, chi.URLParam(r, "item_id"), req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.view(s))
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cart.Remove(ctx, chi.URLParam(r, "item_id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.view(s))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cart.Clear(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.view(s))
}

// POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Cart.ApplyCoupon(r.Context(), req.Code) {
		respondError(w, r, http.StatusBadRequest, "invalid_coupon", "coupon code rejected")
		return
	}
	respond(w, r, http.StatusOK, h.view(s))
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.Context(), SessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *CartHandler) view(s *session.Session) CartResponseDTO {
	items := s.Cart.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	resp := CartResponseDTO{
		Items:     items,
		ItemCount: s.Cart.ItemCount(),
		Totals:    s.Cart.Totals().Rounded(),
		Currency:  h.currency,
	}
	if c, ok := s.Cart.AppliedCoupon(); ok {
		resp.Coupon = &CouponDTO{Code: c.Code, Percent: c.Percent()}
	}
	return resp
}
