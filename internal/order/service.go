package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkincode/toughstore/internal/cart"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

// maxOrderNumberAttempts bounds the random order-number draw before the
// generator falls back to a snowflake-derived code.
const maxOrderNumberAttempts = 20

// Service converts carts and item selections into immutable orders. Every
// create path runs in a single transaction with per-product row locks so
// stock validation and decrement are atomic: concurrent checkouts against
// the same product serialize and can never oversell.
type Service struct {
	db    *gorm.DB
	carts *cart.Service
}

func NewService(db *gorm.DB, carts *cart.Service) *Service {
	return &Service{db: db, carts: carts}
}

// ItemRequest is one requested line in an explicit-items order.
type ItemRequest struct {
	ProductId int64 `json:"product_id,string"`
	Quantity  int   `json:"quantity"`
}

// Filters narrows FindAll results.
type Filters struct {
	Status    string
	UserId    string
	StartDate time.Time
	EndDate   time.Time
}

// mergeItemRequests folds repeated product lines into one request per
// product, so the stock check sees the true requested quantity.
func mergeItemRequests(items []ItemRequest) []ItemRequest {
	merged := make([]ItemRequest, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductId]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductId] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// lockForUpdate adds a row-level lock on dialects that support it. The
// sqlite driver used in tests serializes writes on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// generateOrderNumber draws 8-digit numeric strings until one is free,
// bounded by maxOrderNumberAttempts with a snowflake-derived fallback.
func (s *Service) generateOrderNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < maxOrderNumberAttempts; i++ {
		number := fmt.Sprintf("%08d", 10000000+rand.Intn(90000000))
		var count int64
		if err := tx.Model(&domain.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
		zap.L().Warn("order number collision, retrying", zap.String("number", number))
	}
	// Extremely unlikely; derive a unique code from a fresh snowflake id.
	fallback := fmt.Sprintf("%08d", common.UUIDint64()%100000000)
	zap.L().Warn("order number attempts exhausted, using derived fallback", zap.String("number", fallback))
	return fallback, nil
}

// Create builds an order from explicit item requests. Repeated lines for
// the same product merge into one. All-or-nothing: any missing or inactive
// product or insufficient stock rolls back the whole transaction with no
// order row and no stock decremented.
func (s *Service) Create(ctx context.Context, owner string, items []ItemRequest, shippingAddress, contactPhone string) (*domain.Order, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domain.ErrValidation)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be greater than zero", domain.ErrValidation)
		}
	}
	items = mergeItemRequests(items)

	var created *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		products := make([]domain.Product, len(items))
		for i, item := range items {
			if err := lockForUpdate(tx).Where("id = ?", item.ProductId).First(&products[i]).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d %w", item.ProductId, domain.ErrNotFound)
				}
				return err
			}
			if !products[i].Active {
				return fmt.Errorf("product %d %w", item.ProductId, domain.ErrInactiveProduct)
			}
			if products[i].StockQty < item.Quantity {
				return &domain.StockError{ProductId: products[i].ID, Available: products[i].StockQty}
			}
			total += products[i].Price * float64(item.Quantity)
		}

		number, err := s.generateOrderNumber(tx)
		if err != nil {
			return err
		}

		o := domain.Order{
			ID:              common.UUIDint64(),
			OrderNumber:     number,
			UserId:          owner,
			Status:          domain.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: shippingAddress,
			ContactPhone:    contactPhone,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		for i, item := range items {
			oi := domain.OrderItem{
				ID:        common.UUIDint64(),
				OrderId:   o.ID,
				ProductId: item.ProductId,
				Quantity:  item.Quantity,
				Price:     products[i].Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Product{}).
				Where("id = ?", item.ProductId).
				Update("stock_qty", gorm.Expr("stock_qty - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created",
		zap.String("owner", owner),
		zap.String("order_number", created.OrderNumber),
		zap.Float64("total", created.TotalAmount))
	return s.FindByID(ctx, created.ID)
}

// CreateFromCart converts the owner's active cart into an order using the
// prices captured at add-time, then clears the cart. Same all-or-nothing
// stock policy as Create; the cart is cleared only after the order commits.
func (s *Service) CreateFromCart(ctx context.Context, owner, shippingAddress string) (*domain.Order, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}

	if err := s.ensureTelegramUser(ctx, owner); err != nil {
		return nil, err
	}

	c, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var created *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := cart.Total(c)

		number, err := s.generateOrderNumber(tx)
		if err != nil {
			return err
		}

		o := domain.Order{
			ID:              common.UUIDint64(),
			OrderNumber:     number,
			UserId:          owner,
			Status:          domain.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: shippingAddress,
			ContactPhone:    "not provided",
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		for _, item := range c.Items {
			var product domain.Product
			if err := lockForUpdate(tx).Where("id = ?", item.ProductId).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d %w", item.ProductId, domain.ErrNotFound)
				}
				return err
			}
			if !product.Active {
				return fmt.Errorf("product %d %w", item.ProductId, domain.ErrInactiveProduct)
			}
			if product.StockQty < item.Quantity {
				return &domain.StockError{ProductId: product.ID, Available: product.StockQty}
			}
			oi := domain.OrderItem{
				ID:        common.UUIDint64(),
				OrderId:   o.ID,
				ProductId: item.ProductId,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Product{}).
				Where("id = ?", item.ProductId).
				Update("stock_qty", gorm.Expr("stock_qty - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.ClearCart(ctx, owner); err != nil {
		zap.L().Error("order: cart clear after checkout failed", zap.String("owner", owner), zap.Error(err))
	}

	zap.L().Info("order created from cart",
		zap.String("owner", owner),
		zap.String("order_number", created.OrderNumber))
	return s.FindByID(ctx, created.ID)
}

var (
	contactNameRe    = regexp.MustCompile(`(?i)Имя:\s*(.+)`)
	contactAddressRe = regexp.MustCompile(`(?i)Адрес:\s*(.+)`)
	contactPhoneRe   = regexp.MustCompile(`(?i)Телефон:\s*(.+)`)
)

// ParseContactInfo extracts name, address and phone from the free-form
// contact block the bot collects.
func ParseContactInfo(contactInfo string) (name, address, phone string) {
	if m := contactNameRe.FindStringSubmatch(contactInfo); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if m := contactAddressRe.FindStringSubmatch(contactInfo); m != nil {
		address = strings.TrimSpace(m[1])
	}
	if m := contactPhoneRe.FindStringSubmatch(contactInfo); m != nil {
		phone = strings.TrimSpace(m[1])
	}
	return name, address, phone
}

// CreateFromTelegram places a single-product order for a bot customer,
// creating a shadow user account for the chat owner when needed.
func (s *Service) CreateFromTelegram(ctx context.Context, owner string, productId int64, quantity int, contactInfo string) (*domain.Order, error) {
	if err := s.ensureTelegramUser(ctx, owner); err != nil {
		return nil, err
	}
	_, address, phone := ParseContactInfo(contactInfo)
	return s.Create(ctx, owner, []ItemRequest{{ProductId: productId, Quantity: quantity}}, address, phone)
}

// ensureTelegramUser creates a shadow account keyed by the chat-derived
// username so bot orders link to a user row like API orders do.
func (s *Service) ensureTelegramUser(ctx context.Context, owner string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", owner).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	// Random throwaway credential; bot customers never log in with it.
	hashed, err := bcrypt.GenerateFromPassword([]byte(common.UUID()), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := domain.User{
		ID:         common.UUIDint64(),
		Username:   owner,
		Email:      strings.ReplaceAll(owner, " ", "_") + "@telegram.local",
		Password:   string(hashed),
		Role:       domain.RoleUser,
		TelegramId: owner,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return err
	}
	zap.L().Info("created telegram shadow user", zap.String("username", owner))
	return nil
}

// UpdateStatus validates the new status against the transition table and
// persists it, returning the refreshed order.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}

	var o domain.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !domain.ValidOrderTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrValidation, o.Status, status)
	}

	if err := s.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}

	zap.L().Info("order status updated",
		zap.Int64("order_id", id),
		zap.String("from", o.Status),
		zap.String("to", status))
	return s.FindByID(ctx, id)
}

// FindAll lists orders newest-first with optional filters. Ownership
// filtering for non-admin callers happens at the API boundary.
func (s *Service) FindAll(ctx context.Context, filters Filters) ([]domain.Order, error) {
	db := s.db.WithContext(ctx).Model(&domain.Order{}).
		Preload("Items").Preload("Items.Product")
	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	if filters.UserId != "" {
		db = db.Where("user_id = ?", filters.UserId)
	}
	if !filters.StartDate.IsZero() {
		db = db.Where("created_at >= ?", filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		db = db.Where("created_at <= ?", filters.EndDate)
	}

	var orders []domain.Order
	if err := db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByID loads one order with its items and products.
func (s *Service) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("id = ?", id).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
