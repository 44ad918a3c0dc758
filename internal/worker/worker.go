package worker

import (
	"context"
	"encoding/json"
	"log"

	"marketplace/internal/broker"
	"marketplace/internal/models"
	"marketplace/internal/store"
	"marketplace/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StockWorker watches order events and flags products whose stock has
// dropped to or below the configured threshold.
type StockWorker struct {
	consumer  *broker.Consumer
	store     *store.Store
	threshold int
	logger    *zap.Logger
}

// NewStockWorker creates a new stock alert worker
func NewStockWorker(consumer *broker.Consumer, store *store.Store, threshold int) *StockWorker {
	return &StockWorker{
		consumer:  consumer,
		store:     store,
		threshold: threshold,
		logger:    util.GetLogger(),
	}
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	log.Println("Starting stock alert worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	log.Println("Stopping stock alert worker...")
	return w.consumer.Close()
}

func (w *StockWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return err
	}

	if baseEvent.EventType != models.EventTypeOrderPlaced {
		return nil
	}

	var event models.OrderPlacedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	for _, line := range event.Items {
		stock, err := w.store.GetProductStock(ctx, line.ProductID)
		if err != nil {
			w.logger.Error("Failed to check stock",
				zap.Int64("product_id", line.ProductID),
				zap.Error(err))
			continue
		}

		if stock <= w.threshold {
			util.LowStockAlertsTotal.Inc()
			w.logger.Warn("Product stock low",
				zap.Int64("product_id", line.ProductID),
				zap.Int("stock", stock),
				zap.Int64("order_id", event.OrderID))
		}
	}

	return nil
}
