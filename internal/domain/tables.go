package domain

var Tables = []interface{}{
	// System
	&User{},
	// Catalog
	&Product{},
	// Cart
	&Cart{},
	&CartItem{},
	// Orders
	&Order{},
	&OrderItem{},
	// Notifications
	&Notification{},
}
