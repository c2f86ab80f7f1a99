package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughstore/internal/domain"
)

func TestProductListKeyboard(t *testing.T) {
	kb := productListKeyboard([]domain.Product{
		{ID: 1, Name: "Widget", Price: 10},
		{ID: 2, Name: "Gadget", Price: 20},
	})
	require.Len(t, kb.InlineKeyboard, 3, "one row per product plus the cart row")
	assert.Equal(t, "product:1", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "Widget")
	assert.Equal(t, CallbackViewCart, *kb.InlineKeyboard[2][0].CallbackData)
}

func TestProductDetailsKeyboard(t *testing.T) {
	kb := productDetailsKeyboard(42)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "add_to_cart:42", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "buy_now:42", *kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, CallbackBackToProducts, *kb.InlineKeyboard[1][0].CallbackData)
}

func TestCartKeyboard(t *testing.T) {
	kb := cartKeyboard(&domain.Cart{
		Items: []domain.CartItem{
			{ID: 7, ProductId: 1, Quantity: 2, Product: &domain.Product{ID: 1, Name: "Widget"}},
		},
	})
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "remove_from_cart:7", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "Widget")
	assert.Equal(t, CallbackCheckout, *kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, CallbackClearCart, *kb.InlineKeyboard[1][1].CallbackData)
}
