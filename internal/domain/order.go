package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderStatusValues lists every known status, used for API validation.
var OrderStatusValues = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatusValues {
		if v == s {
			return true
		}
	}
	return false
}

// orderTransitions is the allowed status machine:
// pending -> confirmed|cancelled, confirmed -> shipped|cancelled,
// shipped -> delivered; delivered and cancelled are terminal.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// ValidOrderTransition reports whether an order may move from one status
// to another.
func ValidOrderTransition(from, to string) bool {
	for _, v := range orderTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// Order is an immutable snapshot of a completed purchase. Only Status
// changes after creation; TotalAmount is frozen at creation time.
type Order struct {
	ID              int64       `json:"id,string" gorm:"primaryKey"`
	OrderNumber     string      `gorm:"uniqueIndex;size:16" json:"order_number"`
	UserId          string      `gorm:"index;size:128" json:"user_id"`
	Status          string      `gorm:"index;size:16" json:"status"`
	TotalAmount     float64     `json:"total_amount"`
	ShippingAddress string      `gorm:"type:text" json:"shipping_address"`
	ContactPhone    string      `gorm:"size:64" json:"contact_phone"`
	Items           []OrderItem `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem captures the unit price at order-creation time, not the live
// product price.
type OrderItem struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	OrderId   int64     `gorm:"index" json:"order_id,string"`
	ProductId int64     `gorm:"index" json:"product_id,string"`
	Product   *Product  `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
