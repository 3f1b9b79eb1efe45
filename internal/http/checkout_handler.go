package http

import (
	"net/http"
)

type CheckoutHandler struct {
	sessions Sessions
}

func NewCheckoutHandler(sessions Sessions) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

// POST /api/v1/checkout
// Each stage carries its own timeout, so the request context is used as is.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), SessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	order, err := s.Checkout.Checkout(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, order)
}
