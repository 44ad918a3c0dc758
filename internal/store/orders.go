package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
)

// OrderLine is a requested (product, quantity) pair.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// PlacedOrder is the outcome of a committed order transaction.
type PlacedOrder struct {
	OrderID int64
	Total   float64
	Items   []models.OrderItemSummary
	Skipped []int64
}

// canonicalLines merges duplicate product lines and sorts by product
// id, so every placement acquires row locks in the same order and two
// concurrent orders naming the same products cannot deadlock. Missing
// or non-positive quantities count as 1.
func canonicalLines(lines []OrderLine) []OrderLine {
	quantities := make(map[int64]int, len(lines))
	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		quantities[line.ProductID] += qty
	}

	merged := make([]OrderLine, 0, len(quantities))
	for id, qty := range quantities {
		merged = append(merged, OrderLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged
}

// PlaceOrderTx runs the whole order-placement sequence in one
// transaction. Each product row is locked with FOR UPDATE before its
// stock is checked and decremented, so concurrent orders against the
// same product serialize instead of overselling. Lines whose product is
// missing, inactive, or short on stock are skipped; the order still
// commits with whatever was fulfillable.
func (s *Store) PlaceOrderTx(ctx context.Context, userID int64, lines []OrderLine) (*PlacedOrder, error) {
	lines = canonicalLines(lines)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var orderID int64
	err = tx.GetContext(ctx, &orderID,
		"INSERT INTO orders (user_id, total_amount, status) VALUES ($1, 0, $2) RETURNING id",
		userID, models.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	var total float64
	var skipped []int64

	for _, line := range lines {
		qty := line.Quantity

		var product models.Product
		err := tx.GetContext(ctx, &product,
			"SELECT id, name, price, stock, product_key FROM products WHERE id = $1 AND is_active = TRUE FOR UPDATE",
			line.ProductID)
		if err == sql.ErrNoRows {
			skipped = append(skipped, line.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock product %d: %w", line.ProductID, err)
		}

		if product.Stock < qty {
			skipped = append(skipped, line.ProductID)
			continue
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, price, quantity, product_key)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, product.ID, product.Name, product.Price, qty, product.ProductKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1 WHERE id = $2", qty, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", product.ID, err)
		}

		total += product.Price * float64(qty)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET total_amount = $1 WHERE id = $2", total, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order total: %w", err)
	}

	items := []models.OrderItemSummary{}
	err = tx.SelectContext(ctx, &items,
		"SELECT product_name, price, product_key FROM order_items WHERE order_id = $1", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back order items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return &PlacedOrder{
		OrderID: orderID,
		Total:   total,
		Items:   items,
		Skipped: skipped,
	}, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT id, user_id, total_amount, status, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC",
		userID)
	return orders, err
}

type orderItemRow struct {
	OrderID int64 `db:"order_id"`
	models.OrderItemSummary
}

// ListOrdersWithItems retrieves a user's order history, each order
// annotated with its item summaries. Orders with no items get an empty
// array rather than a null placeholder.
func (s *Store) ListOrdersWithItems(ctx context.Context, userID int64) ([]models.OrderWithItems, error) {
	orders, err := s.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []models.OrderWithItems{}, nil
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	query, args, err := sqlx.In(
		"SELECT order_id, product_name, price, product_key FROM order_items WHERE order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []orderItemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	itemsByOrder := make(map[int64][]models.OrderItemSummary)
	for _, row := range rows {
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], row.OrderItemSummary)
	}

	result := make([]models.OrderWithItems, len(orders))
	for i, o := range orders {
		items := itemsByOrder[o.ID]
		if items == nil {
			items = []models.OrderItemSummary{}
		}
		result[i] = models.OrderWithItems{Order: o, Items: items}
	}
	return result, nil
}
