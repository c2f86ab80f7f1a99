package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gopkg.in/gomail.v2"

	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

// ChatSender delivers a message to the admin chat channel. The telegram
// service implements it; tests plug in fakes.
type ChatSender interface {
	NotifyAdmin(text string) error
}

// MailSender delivers an email. Satisfied by gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service fans out new-order events to the admin channels, best-effort.
// Each channel outcome is journaled as a Notification row; a channel
// failure never propagates to the order-creation caller.
type Service struct {
	db     *gorm.DB
	smtp   config.SmtpConfig
	mailer MailSender
	chat   ChatSender
}

func NewService(db *gorm.DB, smtp config.SmtpConfig) *Service {
	return &Service{
		db:     db,
		smtp:   smtp,
		mailer: gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password),
	}
}

// SetChatSender wires the chat channel after the bot starts.
func (s *Service) SetChatSender(chat ChatSender) {
	s.chat = chat
}

// SetMailSender overrides the SMTP transport (used in tests).
func (s *Service) SetMailSender(mailer MailSender) {
	s.mailer = mailer
}

// NotifyNewOrder reports a freshly committed order to the admin chat and
// email channels and records the outcome of each.
func (s *Service) NotifyNewOrder(ctx context.Context, o *domain.Order, adminEmail string) {
	message := renderChatMessage(o)

	if s.chat != nil {
		if err := s.chat.NotifyAdmin(message); err != nil {
			zap.L().Warn("order chat notification failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
			s.record(ctx, domain.NotifyTypeTelegram, "admin", message, domain.NotifyStatusFailed)
		} else {
			s.record(ctx, domain.NotifyTypeTelegram, "admin", message, domain.NotifyStatusSent)
		}
	}

	if adminEmail != "" {
		content := fmt.Sprintf("order #%s notification", o.OrderNumber)
		if err := s.sendOrderEmail(adminEmail, o); err != nil {
			zap.L().Warn("order email notification failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
			s.record(ctx, domain.NotifyTypeEmail, adminEmail, content, domain.NotifyStatusFailed)
		} else {
			s.record(ctx, domain.NotifyTypeEmail, adminEmail, content, domain.NotifyStatusSent)
		}
	}
}

func (s *Service) record(ctx context.Context, ntype, recipient, content, status string) {
	n := domain.Notification{
		ID:        common.UUIDint64(),
		Type:      ntype,
		Recipient: recipient,
		Content:   content,
		Status:    status,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		zap.L().Error("failed to journal notification", zap.String("type", ntype), zap.Error(err))
	}
}

func (s *Service) sendOrderEmail(to string, o *domain.Order) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.smtp.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Новый заказ №%s", o.OrderNumber))
	m.SetBody("text/html", renderEmailBody(o))
	return s.mailer.DialAndSend(m)
}

func renderChatMessage(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Новый заказ №%s*\n\n", o.OrderNumber)
	fmt.Fprintf(&b, "Дата: %s\n", o.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Сумма: %.2f руб.\n\n", o.TotalAmount)
	b.WriteString("Товары:\n")
	for _, item := range o.Items {
		name := fmt.Sprintf("#%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "- %s x%d = %.2f руб.\n", name, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\nКонтактная информация:\nАдрес: %s\nТелефон: %s", o.ShippingAddress, o.ContactPhone)
	return b.String()
}

func renderEmailBody(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Новый заказ №%s</h1>", o.OrderNumber)
	fmt.Fprintf(&b, "<p>Дата: %s</p>", o.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "<p>Сумма: %.2f руб.</p>", o.TotalAmount)
	b.WriteString("<h2>Товары:</h2><ul>")
	for _, item := range o.Items {
		name := fmt.Sprintf("#%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "<li>%s x%d = %.2f руб.</li>", name, item.Quantity, item.Price*float64(item.Quantity))
	}
	b.WriteString("</ul><h2>Контактная информация:</h2>")
	fmt.Fprintf(&b, "<p>Адрес: %s</p>", o.ShippingAddress)
	fmt.Fprintf(&b, "<p>Телефон: %s</p>", o.ContactPhone)
	return b.String()
}
