package models

import "time"

// User is an account row. The password hash never leaves the server.
type User struct {
	ID           int64   `db:"id" json:"id"`
	Email        string  `db:"email" json:"email"`
	PasswordHash string  `db:"password_hash" json:"-"`
	FullName     string  `db:"full_name" json:"full_name"`
	IsAdmin      bool    `db:"is_admin" json:"is_admin"`
	Balance      float64 `db:"balance" json:"balance"`
}

// Session is what a bearer token resolves to.
type Session struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
}

// Product represents a catalog entry. ProductKey is the redemption code
// handed out on purchase, so it is never serialized with the listing.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Description *string   `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	Discount    float64   `db:"discount" json:"discount"`
	Badge       *string   `db:"badge" json:"badge"`
	Stock       int       `db:"stock" json:"stock"`
	ImageURL    *string   `db:"image_url" json:"image_url"`
	ProductKey  *string   `db:"product_key" json:"-"`
	IsActive    bool      `db:"is_active" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// Order represents a customer order
type Order struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	TotalAmount float64   `db:"total_amount" json:"total_amount"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// OrderItem snapshots the product at purchase time. Name, price and key
// are copied from the product row, not from the request.
type OrderItem struct {
	ID          int64   `db:"id" json:"id"`
	OrderID     int64   `db:"order_id" json:"order_id"`
	ProductID   int64   `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	Price       float64 `db:"price" json:"price"`
	Quantity    int     `db:"quantity" json:"quantity"`
	ProductKey  *string `db:"product_key" json:"product_key"`
}

// OrderItemSummary is the wire shape for item lists in order responses.
type OrderItemSummary struct {
	Name  string  `db:"product_name" json:"name"`
	Price float64 `db:"price" json:"price"`
	Key   *string `db:"product_key" json:"key"`
}

// OrderWithItems is an order annotated with its item summaries.
type OrderWithItems struct {
	Order
	Items []OrderItemSummary `json:"items"`
}

// Order statuses
const (
	OrderStatusCompleted = "completed"
)
