package domain

import "time"

// Product represents a sellable catalog item.
type Product struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	Name        string    `gorm:"index;size:200" json:"name" form:"name"`
	Description string    `gorm:"type:text" json:"description" form:"description"`
	Price       float64   `json:"price" form:"price"` // price in main currency units
	ImageUrl    string    `gorm:"size:1024" json:"image_url"`
	StockQty    int       `json:"stock_qty" form:"stock_qty"` // never negative
	Active      bool      `json:"active" form:"active"`       // inactive products are hidden from customers
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
