package domain

import "time"

// Cart is a customer's in-progress, mutable collection of intended
// purchases. One incomplete cart per owner at a time; completed carts are
// terminal and kept for history.
type Cart struct {
	ID        int64      `json:"id,string" gorm:"primaryKey"`
	UserId    string     `gorm:"index;size:128" json:"user_id"` // owner key: username or telegram-derived name
	Completed bool       `gorm:"index" json:"completed"`
	Items     []CartItem `gorm:"foreignKey:CartId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem quantity is always > 0; removing to zero removes the row.
// Price is captured from the product at add time.
type CartItem struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	CartId    int64     `gorm:"index" json:"cart_id,string"`
	ProductId int64     `gorm:"index" json:"product_id,string"`
	Product   *Product  `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
