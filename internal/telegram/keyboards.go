package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/talkincode/toughstore/internal/domain"
)

// productListKeyboard renders one button per product plus a cart shortcut.
func productListKeyboard(products []domain.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s — %.2f руб.", p.Name, p.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", CallbackProductPrefix, p.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛒 Корзина", CallbackViewCart),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productDetailsKeyboard(productId int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Добавить в корзину", fmt.Sprintf("%s%d", CallbackAddPrefix, productId)),
			tgbotapi.NewInlineKeyboardButtonData("Купить сейчас", fmt.Sprintf("%s%d", CallbackBuyNowPrefix, productId)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ К товарам", CallbackBackToProducts),
		),
	)
}

// cartKeyboard renders a remove button per line item plus checkout.
func cartKeyboard(c *domain.Cart) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(c.Items)+2)
	for _, item := range c.Items {
		name := fmt.Sprintf("#%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ %s x%d", name, item.Quantity),
				fmt.Sprintf("%s%d", CallbackRemovePrefix, item.ID),
			),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ", CallbackCheckout),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Очистить корзину", CallbackClearCart),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ К товарам", CallbackBackToProducts),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
