package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderStatus(t *testing.T) {
	for _, status := range OrderStatusValues {
		assert.True(t, ValidOrderStatus(status), status)
	}
	assert.False(t, ValidOrderStatus("bogus"))
	assert.False(t, ValidOrderStatus(""))
}

func TestValidOrderTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusShipped},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, tc := range allowed {
		assert.True(t, ValidOrderTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusConfirmed, OrderStatusPending},
	}
	for _, tc := range denied {
		assert.False(t, ValidOrderTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	// Terminal states allow nothing.
	for _, to := range OrderStatusValues {
		assert.False(t, ValidOrderTransition(OrderStatusDelivered, to))
		assert.False(t, ValidOrderTransition(OrderStatusCancelled, to))
	}
}

func TestStockErrorUnwrap(t *testing.T) {
	err := &StockError{ProductId: 7, Available: 2}
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "2")
}
