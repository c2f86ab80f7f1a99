package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func newTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int, active bool) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Price:    price,
		StockQty: stock,
		Active:   active,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestGetOrCreateCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	c1, err := svc.GetOrCreateCart(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.False(t, c1.Completed)

	// Second call returns the same cart, not a new one.
	c2, err := svc.GetOrCreateCart(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	var count int64
	db.Model(&domain.Cart{}).Where("user_id = ?", "alice").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateCartRequiresOwner(t *testing.T) {
	svc := NewService(newTestDB(t))
	_, err := svc.GetOrCreateCart(context.Background(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddToCartMergesQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.5, 100, true)

	r1 := svc.AddToCart(ctx, "alice", p.ID, 3)
	require.True(t, r1.OK, r1.Message)
	r2 := svc.AddToCart(ctx, "alice", p.ID, 3)
	require.True(t, r2.OK, r2.Message)

	require.NotNil(t, r2.Cart)
	require.Len(t, r2.Cart.Items, 1)
	assert.Equal(t, 6, r2.Cart.Items[0].Quantity)
	assert.Equal(t, 10.5, r2.Cart.Items[0].Price)
}

func TestAddToCartValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10, 5, true)

	assert.False(t, svc.AddToCart(ctx, "", p.ID, 1).OK)
	assert.False(t, svc.AddToCart(ctx, "alice", 0, 1).OK)
	assert.False(t, svc.AddToCart(ctx, "alice", p.ID, 0).OK)
	assert.False(t, svc.AddToCart(ctx, "alice", p.ID, -2).OK)
	assert.False(t, svc.AddToCart(ctx, "alice", 424242, 1).OK)
}

func TestAddToCartInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p := newTestProduct(t, db, "hidden", 10, 5, false)

	r := svc.AddToCart(context.Background(), "alice", p.ID, 1)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "not available")
}

func TestAddToCartInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newTestProduct(t, db, "scarce", 10, 5, true)

	r := svc.AddToCart(ctx, "alice", p.ID, 6)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "5 available")

	// The merged quantity counts against stock too.
	require.True(t, svc.AddToCart(ctx, "alice", p.ID, 4).OK)
	r = svc.AddToCart(ctx, "alice", p.ID, 2)
	assert.False(t, r.OK)
}

func TestRemoveFromCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10, 5, true)

	r := svc.AddToCart(ctx, "alice", p.ID, 2)
	require.True(t, r.OK)
	itemId := r.Cart.Items[0].ID

	// Someone else's item id is rejected.
	other := svc.RemoveFromCart(ctx, "bob", itemId)
	assert.False(t, other.OK)

	removed := svc.RemoveFromCart(ctx, "alice", itemId)
	require.True(t, removed.OK)
	assert.Empty(t, removed.Cart.Items)

	again := svc.RemoveFromCart(ctx, "alice", itemId)
	assert.False(t, again.OK)
}

func TestClearCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10, 5, true)

	// Clearing a missing cart is a no-op.
	cleared, err := svc.ClearCart(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, cleared)

	require.True(t, svc.AddToCart(ctx, "alice", p.ID, 2).OK)

	cleared, err = svc.ClearCart(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, cleared)

	c, err := svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, c, "completed cart must not surface as active")

	var items int64
	db.Model(&domain.CartItem{}).Count(&items)
	assert.EqualValues(t, 0, items)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil))
	c := &domain.Cart{Items: []domain.CartItem{
		{Quantity: 2, Price: 10.5},
		{Quantity: 1, Price: 4.0},
	}}
	assert.Equal(t, 25.0, Total(c))
}
