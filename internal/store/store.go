package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetActiveProducts retrieves active products, optionally filtered by
// category, newest first.
func (s *Store) GetActiveProducts(ctx context.Context, category string) ([]models.Product, error) {
	const columns = "id, name, category, description, price, discount, badge, stock, image_url"

	var products []models.Product
	var err error
	if category != "" {
		err = s.db.SelectContext(ctx, &products,
			"SELECT "+columns+" FROM products WHERE category = $1 AND is_active = TRUE ORDER BY created_at DESC",
			category)
	} else {
		err = s.db.SelectContext(ctx, &products,
			"SELECT "+columns+" FROM products WHERE is_active = TRUE ORDER BY created_at DESC")
	}
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// CreateProduct inserts a new product and fills in its ID
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, category, description, price, discount, badge, stock, image_url, product_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return s.db.GetContext(ctx, &p.ID, query,
		p.Name, p.Category, p.Description, p.Price, p.Discount, p.Badge, p.Stock, p.ImageURL, p.ProductKey)
}

// GetProductStock retrieves the current stock level of a product
func (s *Store) GetProductStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := s.db.GetContext(ctx, &stock, "SELECT stock FROM products WHERE id = $1", productID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("product not found: %d", productID)
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}
