package service

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/broker"
	"marketplace/internal/models"
	"marketplace/internal/store"
	"marketplace/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService handles order placement and history
type OrderService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	UserID int64              `json:"user_id" binding:"required"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest represents a line item in an order request. The
// caller names only product and quantity; price and name come from the
// product row at placement time.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrderResponse represents the response after placing an order
type PlaceOrderResponse struct {
	OrderID int64                     `json:"order_id"`
	Total   float64                   `json:"total"`
	Items   []models.OrderItemSummary `json:"items"`
}

// Place runs the transactional order placement and publishes an
// OrderPlaced event after commit. Lines that could not be fulfilled
// are skipped without failing the order.
func (s *OrderService) Place(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Place",
		attribute.Int64("order.user_id", req.UserID),
		attribute.Int("order.lines", len(req.Items)))
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	placed, err := s.store.PlaceOrderTx(ctx, req.UserID, toLines(req.Items))
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	for _, productID := range placed.Skipped {
		util.OrderItemsSkippedTotal.Inc()
		s.logger.Warn("Order line skipped",
			zap.Int64("order_id", placed.OrderID),
			zap.Int64("product_id", productID))
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", placed.OrderID),
		zap.Float64("total", placed.Total),
		zap.Int("items", len(placed.Items)))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID: placed.OrderID,
		UserID:  req.UserID,
		Total:   placed.Total,
		Items:   toEventLines(req.Items),
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &PlaceOrderResponse{
		OrderID: placed.OrderID,
		Total:   placed.Total,
		Items:   placed.Items,
	}, nil
}

// ListByUser returns a user's order history, newest first, each order
// with its item summaries.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]models.OrderWithItems, error) {
	orders, err := s.store.ListOrdersWithItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// toLines converts request items to order lines, defaulting a missing
// quantity to 1.
func toLines(items []OrderItemRequest) []store.OrderLine {
	lines := make([]store.OrderLine, len(items))
	for i, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		lines[i] = store.OrderLine{ProductID: item.ProductID, Quantity: qty}
	}
	return lines
}

func toEventLines(items []OrderItemRequest) []models.OrderLineData {
	lines := make([]models.OrderLineData, len(items))
	for i, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		lines[i] = models.OrderLineData{ProductID: item.ProductID, Quantity: qty}
	}
	return lines
}
