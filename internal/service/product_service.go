package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/broker"
	"marketplace/internal/models"
	"marketplace/internal/redisclient"
	"marketplace/internal/store"
	"marketplace/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProductService handles catalog reads and writes
type ProductService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	cacheTTL       time.Duration
	logger         *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	cacheTTL time.Duration,
) *ProductService {
	return &ProductService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		cacheTTL:       cacheTTL,
		logger:         util.GetLogger(),
	}
}

// CreateProductRequest represents a request to add a product
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	Discount    float64 `json:"discount"`
	Badge       *string `json:"badge"`
	Stock       int     `json:"stock"`
	ImageURL    *string `json:"image_url"`
	ProductKey  *string `json:"product_key"`
}

// List returns active products, optionally filtered by category,
// newest first. Listings are served cache-aside from Redis.
func (s *ProductService) List(ctx context.Context, category string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.List",
		attribute.String("product.category", category))
	defer span.End()

	cached, err := s.redis.GetCachedProductList(ctx, category)
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.Error(err))
	}
	if cached != nil {
		var products []models.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			util.ProductCacheHitsTotal.Inc()
			return products, nil
		}
		s.logger.Warn("Dropping unreadable product cache entry", zap.String("category", category))
	}

	util.ProductCacheMissesTotal.Inc()

	products, err := s.store.GetActiveProducts(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := s.redis.CacheProductList(ctx, category, payload, s.cacheTTL); err != nil {
			s.logger.Warn("Product cache write failed", zap.Error(err))
		}
	}

	return products, nil
}

// Create inserts a product, invalidates affected listings and publishes
// a ProductCreated event.
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (int64, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	product := &models.Product{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Badge:       req.Badge,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		ProductKey:  req.ProductKey,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("category", product.Category))

	if err := s.redis.InvalidateProductList(ctx, product.Category); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Error(err))
	}

	event := &models.ProductCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductCreated,
			Timestamp: time.Now(),
		},
		ProductID: product.ID,
		Category:  product.Category,
	}
	if err := s.eventPublisher.PublishProductCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductCreated event", zap.Error(err))
	}

	return product.ID, nil
}
