package telegram

import "fmt"

// Bot commands.
const (
	CmdStart    = "start"
	CmdProducts = "products"
	CmdCart     = "cart"
	CmdCheckout = "checkout"
	CmdHelp     = "help"
)

// Callback data prefixes.
const (
	CallbackBackToProducts = "back_to_products"
	CallbackViewCart       = "view_cart"
	CallbackCheckout       = "checkout"
	CallbackClearCart      = "clear_cart"
	CallbackProductPrefix  = "product:"
	CallbackAddPrefix      = "add_to_cart:"
	CallbackRemovePrefix   = "remove_from_cart:"
	CallbackBuyNowPrefix   = "buy_now:"
)

// Customer-facing texts: short, localized, actionable.
const (
	msgWelcome        = "Добро пожаловать в магазин! Используйте /products для просмотра товаров."
	msgCartEmpty      = "Ваша корзина пуста. Используйте /products для просмотра товаров."
	msgEnterQuantity  = "Введите количество товара:"
	msgEnterAddress   = "Введите адрес доставки:"
	msgEnterContact   = "Введите контактную информацию (Имя, Адрес, Телефон):"
	msgCartCleared    = "Корзина очищена."
	msgErrorGeneric   = "Произошла ошибка. Попробуйте позже."
	msgUnknownCommand = "Неизвестная команда. Используйте /products для просмотра товаров."
	msgBadQuantity    = "Укажите количество целым числом больше нуля."
	msgNoProducts     = "Товары не найдены. Загляните позже."
	msgUseCommands    = "Используйте команды для взаимодействия с ботом. Например, /products для просмотра товаров."
)

func msgOrderCreated(orderNumber string) string {
	return fmt.Sprintf("Спасибо! Ваш заказ №%s принят. Мы свяжемся с вами для подтверждения.", orderNumber)
}

func msgOrderError(detail string) string {
	return fmt.Sprintf("Произошла ошибка при оформлении заказа: %s", detail)
}
