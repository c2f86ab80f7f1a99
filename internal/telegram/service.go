package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/talkincode/toughstore/internal/cart"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/notify"
	"github.com/talkincode/toughstore/internal/order"
)

// Service drives the customer-facing Telegram storefront: catalog
// browsing, cart management and checkout, plus the admin notification
// channel used by the relay.
type Service struct {
	bot         *tgbotapi.BotAPI
	states      *StateStore
	products    *catalog.Service
	carts       *cart.Service
	orders      *order.Service
	notifier    *notify.Service
	adminChatId int64
	adminEmail  string
}

func New(token string, adminChatId int64, adminEmail string,
	products *catalog.Service, carts *cart.Service, orders *order.Service, notifier *notify.Service) (*Service, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init failed: %w", err)
	}
	s := &Service{
		bot:         bot,
		states:      NewStateStore(DefaultStateTTL),
		products:    products,
		carts:       carts,
		orders:      orders,
		notifier:    notifier,
		adminChatId: adminChatId,
		adminEmail:  adminEmail,
	}
	return s, nil
}

// Start registers the command menu and consumes updates until ctx ends.
func (s *Service) Start(ctx context.Context) {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: CmdStart, Description: "Начать работу с ботом"},
		tgbotapi.BotCommand{Command: CmdProducts, Description: "Показать список товаров"},
		tgbotapi.BotCommand{Command: CmdCart, Description: "Показать корзину"},
		tgbotapi.BotCommand{Command: CmdCheckout, Description: "Оформить заказ"},
		tgbotapi.BotCommand{Command: CmdHelp, Description: "Помощь"},
	)
	if _, err := s.bot.Request(commands); err != nil {
		zap.L().Warn("failed to publish bot commands", zap.Error(err))
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := s.bot.GetUpdatesChan(updateCfg)

	zap.L().Info("telegram bot started", zap.String("username", s.bot.Self.UserName))

	go func() {
		for {
			select {
			case <-ctx.Done():
				s.bot.StopReceivingUpdates()
				s.states.Stop()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.handleUpdate(ctx, update)
			}
		}
	}()
}

func (s *Service) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("telegram update handler panicked", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	}
}

// ownerKey derives the cart/order owner key for a chat user.
func ownerKey(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return from.UserName
	}
	return fmt.Sprintf("tg_%d", from.ID)
}

func (s *Service) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatId := msg.Chat.ID

	if msg.IsCommand() {
		s.handleCommand(ctx, msg)
		return
	}

	if state := s.states.Get(chatId); state != nil {
		s.handleStateInput(ctx, msg, state)
		return
	}

	s.send(chatId, msgUseCommands)
}

func (s *Service) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatId := msg.Chat.ID
	switch msg.Command() {
	case CmdStart:
		s.send(chatId, msgWelcome)
	case CmdProducts:
		s.sendProductList(ctx, chatId)
	case CmdCart:
		s.sendCart(ctx, chatId, ownerKey(msg.From))
	case CmdCheckout:
		s.startCheckout(ctx, chatId, ownerKey(msg.From))
	case CmdHelp:
		s.sendHelp(chatId)
	default:
		s.send(chatId, msgUnknownCommand)
	}
}

func (s *Service) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatId := query.Message.Chat.ID
	owner := ownerKey(query.From)
	data := query.Data

	switch {
	case strings.HasPrefix(data, CallbackProductPrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackProductPrefix), 10, 64); err == nil {
			s.sendProductDetails(ctx, chatId, id)
		}
	case data == CallbackBackToProducts:
		s.sendProductList(ctx, chatId)
	case data == CallbackViewCart:
		s.sendCart(ctx, chatId, owner)
	case data == CallbackCheckout:
		s.startCheckout(ctx, chatId, owner)
	case data == CallbackClearCart:
		if _, err := s.carts.ClearCart(ctx, owner); err != nil {
			zap.L().Error("telegram cart clear failed", zap.String("owner", owner), zap.Error(err))
			s.send(chatId, msgErrorGeneric)
			break
		}
		s.send(chatId, msgCartCleared)
	case strings.HasPrefix(data, CallbackAddPrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackAddPrefix), 10, 64); err == nil {
			s.states.Set(chatId, &ChatState{State: StateWaitingQuantity, ProductId: id})
			s.send(chatId, msgEnterQuantity)
		}
	case strings.HasPrefix(data, CallbackBuyNowPrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackBuyNowPrefix), 10, 64); err == nil {
			s.states.Set(chatId, &ChatState{State: StateWaitingContactInfo, ProductId: id, Quantity: 0})
			s.send(chatId, msgEnterQuantity)
		}
	case strings.HasPrefix(data, CallbackRemovePrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackRemovePrefix), 10, 64); err == nil {
			result := s.carts.RemoveFromCart(ctx, owner, id)
			s.send(chatId, result.Message)
			if result.OK {
				s.sendCart(ctx, chatId, owner)
			}
		}
	}

	if _, err := s.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		zap.L().Debug("callback ack failed", zap.Error(err))
	}
}

// handleStateInput advances a multi-step flow with the user's reply.
func (s *Service) handleStateInput(ctx context.Context, msg *tgbotapi.Message, state *ChatState) {
	chatId := msg.Chat.ID
	owner := ownerKey(msg.From)
	text := strings.TrimSpace(msg.Text)

	switch state.State {
	case StateWaitingQuantity:
		qty, err := strconv.Atoi(text)
		if err != nil || qty <= 0 {
			s.send(chatId, msgBadQuantity)
			return
		}
		s.states.Delete(chatId)
		result := s.carts.AddToCart(ctx, owner, state.ProductId, qty)
		s.send(chatId, result.Message)
		if result.OK {
			s.sendCart(ctx, chatId, owner)
		}

	case StateWaitingContactInfo:
		// First reply carries the quantity, second the contact block.
		if state.Quantity == 0 {
			qty, err := strconv.Atoi(text)
			if err != nil || qty <= 0 {
				s.send(chatId, msgBadQuantity)
				return
			}
			state.Quantity = qty
			s.states.Set(chatId, state)
			s.send(chatId, msgEnterContact)
			return
		}
		s.states.Delete(chatId)
		o, err := s.orders.CreateFromTelegram(ctx, owner, state.ProductId, state.Quantity, text)
		if err != nil {
			zap.L().Warn("telegram direct order failed", zap.String("owner", owner), zap.Error(err))
			s.send(chatId, msgOrderError(userFacing(err)))
			return
		}
		s.send(chatId, msgOrderCreated(o.OrderNumber))
		s.notifier.NotifyNewOrder(ctx, o, s.adminEmail)

	case StateWaitingAddress:
		s.states.Delete(chatId)
		o, err := s.orders.CreateFromCart(ctx, owner, text)
		if err != nil {
			zap.L().Warn("telegram cart order failed", zap.String("owner", owner), zap.Error(err))
			s.send(chatId, msgOrderError(userFacing(err)))
			return
		}
		s.send(chatId, msgOrderCreated(o.OrderNumber))
		s.notifier.NotifyNewOrder(ctx, o, s.adminEmail)

	default:
		s.states.Delete(chatId)
		s.send(chatId, msgUnknownCommand)
	}
}

func (s *Service) sendProductList(ctx context.Context, chatId int64) {
	active := true
	products, err := s.products.FindAll(ctx, &active)
	if err != nil {
		zap.L().Error("telegram product list failed", zap.Error(err))
		s.send(chatId, msgErrorGeneric)
		return
	}
	if len(products) == 0 {
		s.send(chatId, msgNoProducts)
		return
	}
	msg := tgbotapi.NewMessage(chatId, "Выберите товар:")
	msg.ReplyMarkup = productListKeyboard(products)
	s.sendMessage(msg)
}

func (s *Service) sendProductDetails(ctx context.Context, chatId int64, productId int64) {
	p, err := s.products.FindByID(ctx, productId)
	if err != nil {
		s.send(chatId, msgErrorGeneric)
		return
	}
	text := fmt.Sprintf("*%s*\n\n%s\n\nЦена: %.2f руб.\nВ наличии: %d шт.",
		p.Name, p.Description, p.Price, p.StockQty)
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = productDetailsKeyboard(p.ID)
	s.sendMessage(msg)
}

func (s *Service) sendCart(ctx context.Context, chatId int64, owner string) {
	c, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		zap.L().Error("telegram cart load failed", zap.String("owner", owner), zap.Error(err))
		s.send(chatId, msgErrorGeneric)
		return
	}
	if c == nil || len(c.Items) == 0 {
		s.send(chatId, msgCartEmpty)
		return
	}

	var b strings.Builder
	b.WriteString("*Ваша корзина:*\n\n")
	for _, item := range c.Items {
		name := fmt.Sprintf("#%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "• %s x%d = %.2f руб.\n", name, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\nИтого: %.2f руб.", cart.Total(c))

	msg := tgbotapi.NewMessage(chatId, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = cartKeyboard(c)
	s.sendMessage(msg)
}

func (s *Service) startCheckout(ctx context.Context, chatId int64, owner string) {
	c, err := s.carts.GetCart(ctx, owner)
	if err != nil || c == nil || len(c.Items) == 0 {
		s.send(chatId, msgCartEmpty)
		return
	}
	s.states.Set(chatId, &ChatState{State: StateWaitingAddress})
	s.send(chatId, msgEnterAddress)
}

func (s *Service) sendHelp(chatId int64) {
	help := strings.Join([]string{
		"*Доступные команды:*",
		"/" + CmdStart + " — Начать работу с ботом",
		"/" + CmdProducts + " — Показать список товаров",
		"/" + CmdCart + " — Показать корзину",
		"/" + CmdCheckout + " — Оформить заказ",
		"/" + CmdHelp + " — Показать эту справку",
	}, "\n")
	msg := tgbotapi.NewMessage(chatId, help)
	msg.ParseMode = tgbotapi.ModeMarkdown
	s.sendMessage(msg)
}

// NotifyAdmin implements notify.ChatSender against the configured admin
// chat.
func (s *Service) NotifyAdmin(text string) error {
	if s.adminChatId == 0 {
		return fmt.Errorf("admin chat id is not configured")
	}
	msg := tgbotapi.NewMessage(s.adminChatId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := s.bot.Send(msg)
	return err
}

func (s *Service) send(chatId int64, text string) {
	s.sendMessage(tgbotapi.NewMessage(chatId, text))
}

func (s *Service) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := s.bot.Send(msg); err != nil {
		zap.L().Warn("telegram send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

// userFacing maps business errors onto short chat-friendly texts.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "корзина пуста"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "недостаточно товара на складе"
	case errors.Is(err, domain.ErrInactiveProduct):
		return "товар недоступен для заказа"
	case errors.Is(err, domain.ErrNotFound):
		return "товар не найден"
	default:
		return "внутренняя ошибка"
	}
}
