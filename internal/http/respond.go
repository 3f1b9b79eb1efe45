package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/breaker"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error         string                `json:"error"`
	Code          string                `json:"code,omitempty"`
	Details       string                `json:"details,omitempty"`
	Notifications []domain.Notification `json:"notifications"`
}

type envelope struct {
	Data          interface{}           `json:"data"`
	Notifications []domain.Notification `json:"notifications"`
}

func notifications(ctx context.Context) []domain.Notification {
	if c, ok := notify.CollectorFrom(ctx); ok {
		return c.Notifications()
	}
	return []domain.Notification{}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// respond wraps data with the notifications raised during the request.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, envelope{Data: data, Notifications: notifications(r.Context())})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:         message,
		Code:          code,
		Notifications: notifications(r.Context()),
	})
}

// handleError maps engine errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	respondError(w, r, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, breaker.ErrOpen):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrOrderSubmissionFailed):
		return http.StatusBadGateway, "submission_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
