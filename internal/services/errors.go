package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the order and payment services. Handlers map
// them onto HTTP statuses.
var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInvalidTransition = errors.New("order cannot be cancelled at this stage")
	ErrInvalidStatus     = errors.New("invalid order status")
)

// InsufficientStockError reports which product blocked a stock reservation.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}
