package domain

import (
	"errors"
	"fmt"
)

// Business error taxonomy shared by services. HTTP handlers map these to
// status codes; the bot renders them as user-facing messages.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInactiveProduct   = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty or not found")
	ErrAuth              = errors.New("invalid credentials")
	ErrForbidden         = errors.New("operation not permitted")
)

// StockError reports how many units remain when a request exceeds stock.
type StockError struct {
	ProductId int64
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d, %d available", e.ProductId, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
