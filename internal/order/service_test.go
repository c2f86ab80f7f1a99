package order

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughstore/internal/cart"
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

func newTestServices(t *testing.T) (*gorm.DB, *cart.Service, *Service) {
	t.Helper()
	db := newTestDB(t)
	carts := cart.NewService(db)
	return db, carts, NewService(db, carts)
}

func newTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Price:    price,
		StockQty: stock,
		Active:   true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func productStock(t *testing.T, db *gorm.DB, id int64) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQty
}

var orderNumberRe = regexp.MustCompile(`^\d{8}$`)

func TestCreateOrder(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	pa := newTestProduct(t, db, "widget", 10.0, 5)
	pb := newTestProduct(t, db, "gadget", 4.5, 10)

	o, err := svc.Create(ctx, "alice", []ItemRequest{
		{ProductId: pa.ID, Quantity: 2},
		{ProductId: pb.ID, Quantity: 4},
	}, "Lenina 1", "+700000000")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Regexp(t, orderNumberRe, o.OrderNumber)
	assert.Equal(t, 2*10.0+4*4.5, o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Lenina 1", o.ShippingAddress)
	assert.Equal(t, "+700000000", o.ContactPhone)

	assert.Equal(t, 3, productStock(t, db, pa.ID))
	assert.Equal(t, 6, productStock(t, db, pb.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 5)

	_, err := svc.Create(ctx, "", []ItemRequest{{ProductId: p.ID, Quantity: 1}}, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "alice", nil, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "alice", []ItemRequest{{ProductId: p.ID, Quantity: 0}}, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	pa := newTestProduct(t, db, "plenty", 10.0, 5)
	pb := newTestProduct(t, db, "scarce", 4.5, 3)

	_, err := svc.Create(ctx, "alice", []ItemRequest{
		{ProductId: pa.ID, Quantity: 2},
		{ProductId: pb.ID, Quantity: 10},
	}, "addr", "phone")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nothing persisted, nothing decremented.
	var orders, items int64
	db.Model(&domain.Order{}).Count(&orders)
	db.Model(&domain.OrderItem{}).Count(&items)
	assert.EqualValues(t, 0, orders)
	assert.EqualValues(t, 0, items)
	assert.Equal(t, 5, productStock(t, db, pa.ID))
	assert.Equal(t, 3, productStock(t, db, pb.ID))
}

func TestCreateOrderDuplicateLines(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 5)

	// Two lines for the same product count as one request of 6 against
	// stock 5.
	_, err := svc.Create(ctx, "alice", []ItemRequest{
		{ProductId: p.ID, Quantity: 3},
		{ProductId: p.ID, Quantity: 3},
	}, "addr", "phone")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var orders int64
	db.Model(&domain.Order{}).Count(&orders)
	assert.EqualValues(t, 0, orders)
	assert.Equal(t, 5, productStock(t, db, p.ID))

	// Within stock the lines merge into a single order item.
	o, err := svc.Create(ctx, "alice", []ItemRequest{
		{ProductId: p.ID, Quantity: 2},
		{ProductId: p.ID, Quantity: 3},
	}, "addr", "phone")
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.Equal(t, 50.0, o.TotalAmount)
	assert.Equal(t, 0, productStock(t, db, p.ID))
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "retired", 10.0, 5)
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("active", false).Error)

	_, err := svc.Create(ctx, "alice", []ItemRequest{{ProductId: p.ID, Quantity: 1}}, "addr", "phone")
	assert.ErrorIs(t, err, domain.ErrInactiveProduct)
	assert.Equal(t, 5, productStock(t, db, p.ID))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	_, _, svc := newTestServices(t)
	_, err := svc.Create(context.Background(), "alice",
		[]ItemRequest{{ProductId: 424242, Quantity: 1}}, "addr", "phone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTotalAmountFrozen(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 10)

	o, err := svc.Create(ctx, "alice", []ItemRequest{{ProductId: p.ID, Quantity: 2}}, "addr", "phone")
	require.NoError(t, err)
	require.Equal(t, 20.0, o.TotalAmount)

	// A later price change must not affect the recorded order.
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("price", 99.0).Error)

	reloaded, err := svc.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, reloaded.TotalAmount)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 10.0, reloaded.Items[0].Price)
}

func TestCreateFromCartEmpty(t *testing.T) {
	_, _, svc := newTestServices(t)
	_, err := svc.CreateFromCart(context.Background(), "alice", "addr")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCreateFromCart(t *testing.T) {
	db, carts, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 10)

	require.True(t, carts.AddToCart(ctx, "alice", p.ID, 3).OK)

	// Checkout uses the price captured at add time, not the live one.
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("price", 50.0).Error)

	o, err := svc.CreateFromCart(ctx, "alice", "Lenina 1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, o.TotalAmount)
	assert.Equal(t, 7, productStock(t, db, p.ID))

	// Cart is cleared only after the order commits.
	c, err := carts.GetCart(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, c)

	// A shadow user exists for the bot owner key.
	var userCount int64
	db.Model(&domain.User{}).Where("username = ?", "alice").Count(&userCount)
	assert.EqualValues(t, 1, userCount)
}

func TestCreateFromCartInsufficientStock(t *testing.T) {
	db, carts, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 5)

	require.True(t, carts.AddToCart(ctx, "alice", p.ID, 5).OK)
	// Stock shrinks after the item was carted.
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("stock_qty", 2).Error)

	_, err := svc.CreateFromCart(ctx, "alice", "addr")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// All-or-nothing: no order and the cart stays intact.
	var orders int64
	db.Model(&domain.Order{}).Count(&orders)
	assert.EqualValues(t, 0, orders)
	assert.Equal(t, 2, productStock(t, db, p.ID))

	c, err := carts.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Items, 1)
}

func TestCreateFromCartInactiveProduct(t *testing.T) {
	db, carts, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 5)

	require.True(t, carts.AddToCart(ctx, "alice", p.ID, 2).OK)
	// Product retired after it was carted.
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("active", false).Error)

	_, err := svc.CreateFromCart(ctx, "alice", "addr")
	assert.ErrorIs(t, err, domain.ErrInactiveProduct)
	assert.Equal(t, 5, productStock(t, db, p.ID))
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	db, _, svc := newTestServices(t)
	p := newTestProduct(t, db, "last-one", 10.0, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), "alice",
				[]ItemRequest{{ProductId: p.ID, Quantity: 1}}, "addr", "phone")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, productStock(t, db, p.ID))
}

func TestCreateFromTelegram(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 10)

	contact := "Имя: Алиса\nАдрес: Ленина 1\nТелефон: +700000000"
	o, err := svc.CreateFromTelegram(ctx, "alice_tg", p.ID, 2, contact)
	require.NoError(t, err)
	assert.Equal(t, "Ленина 1", o.ShippingAddress)
	assert.Equal(t, "+700000000", o.ContactPhone)
	assert.Equal(t, 20.0, o.TotalAmount)

	var user domain.User
	require.NoError(t, db.Where("username = ?", "alice_tg").First(&user).Error)
	assert.Equal(t, "alice_tg", user.TelegramId)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, strings.HasPrefix(user.Password, "$2"), "shadow password is a bcrypt hash")
}

func TestParseContactInfo(t *testing.T) {
	name, address, phone := ParseContactInfo("Имя: Боб\nАдрес: Мира 5\nТелефон: 123")
	assert.Equal(t, "Боб", name)
	assert.Equal(t, "Мира 5", address)
	assert.Equal(t, "123", phone)

	name, address, phone = ParseContactInfo("nothing useful")
	assert.Empty(t, name)
	assert.Empty(t, address)
	assert.Empty(t, phone)
}

func TestUpdateStatusTransitions(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 10)

	o, err := svc.Create(ctx, "alice", []ItemRequest{{ProductId: p.ID, Quantity: 1}}, "addr", "phone")
	require.NoError(t, err)

	// pending -> delivered skips the machine and is rejected.
	_, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrValidation)

	o, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, o.Status)

	o, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	o, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)

	// delivered is terminal.
	_, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStatusErrors(t *testing.T) {
	_, _, svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, 1, "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateStatus(ctx, 424242, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindAllFilters(t *testing.T) {
	db, _, svc := newTestServices(t)
	ctx := context.Background()
	p := newTestProduct(t, db, "widget", 10.0, 100)

	for _, owner := range []string{"alice", "bob", "alice"} {
		_, err := svc.Create(ctx, owner, []ItemRequest{{ProductId: p.ID, Quantity: 1}}, "addr", "phone")
		require.NoError(t, err)
	}

	all, err := svc.FindAll(ctx, Filters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	alices, err := svc.FindAll(ctx, Filters{UserId: "alice"})
	require.NoError(t, err)
	assert.Len(t, alices, 2)

	pending, err := svc.FindAll(ctx, Filters{Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	cancelled, err := svc.FindAll(ctx, Filters{Status: domain.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}

func TestOrderNumberUniqueness(t *testing.T) {
	db, _, svc := newTestServices(t)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		number, err := svc.generateOrderNumber(db)
		require.NoError(t, err)
		require.Regexp(t, orderNumberRe, number)
		_, dup := seen[number]
		require.False(t, dup, "order number %s repeated", number)
		seen[number] = struct{}{}

		require.NoError(t, db.Create(&domain.Order{
			ID:          common.UUIDint64(),
			OrderNumber: number,
			UserId:      "bulk",
			Status:      domain.OrderStatusPending,
		}).Error)
	}
}
