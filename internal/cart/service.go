package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

// Service maintains the per-customer cart ledger. Carts are partitioned by
// owner key and require no cross-owner coordination.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Result is a structured outcome for cart mutations so callers can render
// user-facing messages without exception-driven control flow.
type Result struct {
	OK      bool
	Message string
	Cart    *domain.Cart
}

// GetOrCreateCart returns the owner's incomplete cart, creating one lazily
// on first use.
func (s *Service) GetOrCreateCart(ctx context.Context, owner string) (*domain.Cart, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}

	var c domain.Cart
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("user_id = ? and completed = ?", owner, false).
		First(&c).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c = domain.Cart{
			ID:     common.UUIDint64(),
			UserId: owner,
		}
		if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
			return nil, err
		}
		zap.L().Info("created cart", zap.String("owner", owner), zap.Int64("cart_id", c.ID))
		return &c, nil
	case err != nil:
		return nil, err
	}
	return &c, nil
}

// GetCart returns the owner's active cart or nil when none exists.
func (s *Service) GetCart(ctx context.Context, owner string) (*domain.Cart, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	var c domain.Cart
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("user_id = ? and completed = ?", owner, false).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddToCart validates the product and stock and merges the quantity into an
// existing line item or inserts a new one with the current product price.
func (s *Service) AddToCart(ctx context.Context, owner string, productId int64, quantity int) Result {
	if strings.TrimSpace(owner) == "" {
		return Result{Message: "owner is required"}
	}
	if productId == 0 {
		return Result{Message: "product id is required"}
	}
	if quantity <= 0 {
		return Result{Message: "quantity must be greater than zero"}
	}

	var product domain.Product
	err := s.db.WithContext(ctx).Where("id = ?", productId).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{Message: "product not found"}
	}
	if err != nil {
		zap.L().Error("cart: product lookup failed", zap.Int64("product_id", productId), zap.Error(err))
		return Result{Message: "failed to add item to cart"}
	}
	if !product.Active {
		return Result{Message: "product is not available for order"}
	}

	c, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		zap.L().Error("cart: get or create failed", zap.String("owner", owner), zap.Error(err))
		return Result{Message: "failed to add item to cart"}
	}

	// Count any quantity already carted so the merged amount cannot exceed stock.
	carted := 0
	var existing domain.CartItem
	hasExisting := false
	err = s.db.WithContext(ctx).
		Where("cart_id = ? and product_id = ?", c.ID, productId).
		First(&existing).Error
	if err == nil {
		hasExisting = true
		carted = existing.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("cart: item lookup failed", zap.Int64("cart_id", c.ID), zap.Error(err))
		return Result{Message: "failed to add item to cart"}
	}

	if product.StockQty < carted+quantity {
		return Result{Message: fmt.Sprintf("insufficient stock, %d available", product.StockQty)}
	}

	if hasExisting {
		existing.Quantity += quantity
		existing.UpdatedAt = time.Now()
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			zap.L().Error("cart: item update failed", zap.Int64("item_id", existing.ID), zap.Error(err))
			return Result{Message: "failed to add item to cart"}
		}
	} else {
		item := domain.CartItem{
			ID:        common.UUIDint64(),
			CartId:    c.ID,
			ProductId: productId,
			Quantity:  quantity,
			Price:     product.Price,
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			zap.L().Error("cart: item insert failed", zap.Int64("cart_id", c.ID), zap.Error(err))
			return Result{Message: "failed to add item to cart"}
		}
	}

	updated, err := s.GetCart(ctx, owner)
	if err != nil {
		zap.L().Error("cart: reload failed", zap.String("owner", owner), zap.Error(err))
	}
	zap.L().Info("cart: item added",
		zap.String("owner", owner),
		zap.Int64("product_id", productId),
		zap.Int("quantity", quantity))
	return Result{OK: true, Message: "item added to cart", Cart: updated}
}

// RemoveFromCart deletes the line item when it belongs to the owner's active
// cart. Product image cleanup is the catalog's concern, not the cart's.
func (s *Service) RemoveFromCart(ctx context.Context, owner string, cartItemId int64) Result {
	if strings.TrimSpace(owner) == "" {
		return Result{Message: "owner is required"}
	}
	if cartItemId == 0 {
		return Result{Message: "cart item id is required"}
	}

	c, err := s.GetCart(ctx, owner)
	if err != nil || c == nil {
		return Result{Message: "cart not found"}
	}

	var item domain.CartItem
	err = s.db.WithContext(ctx).
		Where("id = ? and cart_id = ?", cartItemId, c.ID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{Message: "item not found in cart"}
	}
	if err != nil {
		zap.L().Error("cart: item lookup failed", zap.Int64("item_id", cartItemId), zap.Error(err))
		return Result{Message: "failed to remove item from cart"}
	}

	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		zap.L().Error("cart: item delete failed", zap.Int64("item_id", cartItemId), zap.Error(err))
		return Result{Message: "failed to remove item from cart"}
	}

	updated, _ := s.GetCart(ctx, owner)
	zap.L().Info("cart: item removed", zap.String("owner", owner), zap.Int64("item_id", cartItemId))
	return Result{OK: true, Message: "item removed from cart", Cart: updated}
}

// ClearCart deletes all line items and marks the cart completed. Clearing a
// missing cart is a no-op and returns false.
func (s *Service) ClearCart(ctx context.Context, owner string) (bool, error) {
	if strings.TrimSpace(owner) == "" {
		return false, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}

	c, err := s.GetCart(ctx, owner)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}

	if len(c.Items) > 0 {
		if err := s.db.WithContext(ctx).Where("cart_id = ?", c.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return false, err
		}
	}

	if err := s.db.WithContext(ctx).Model(&domain.Cart{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{"completed": true, "updated_at": time.Now()}).Error; err != nil {
		return false, err
	}

	zap.L().Info("cart cleared", zap.String("owner", owner), zap.Int64("cart_id", c.ID))
	return true, nil
}

// Total sums captured item prices; pure, no side effects.
func Total(c *domain.Cart) float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
