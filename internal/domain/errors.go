package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrNotAuthenticated      = errors.New("login required to checkout")
	ErrOrderSubmissionFailed = errors.New("order submission failed")
	ErrCheckoutInProgress    = errors.New("checkout already in progress")
	ErrPersistence           = errors.New("cart persistence failed")
)

// InsufficientStockError names the product that cannot cover the requested
// quantity and how many units are left.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s, available: %d", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
