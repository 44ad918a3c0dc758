package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound is returned when a token has no live session.
var ErrSessionNotFound = errors.New("session not found")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// SaveSession stores a session under its bearer token with a TTL
func (c *Client) SaveSession(ctx context.Context, token string, sess models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return c.rdb.Set(ctx, sessionKey(token), payload, ttl).Err()
}

// GetSession resolves a bearer token to its session
func (c *Client) GetSession(ctx context.Context, token string) (*models.Session, error) {
	payload, err := c.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func productListKey(category string) string {
	if category == "" {
		return "products:all"
	}
	return fmt.Sprintf("products:cat:%s", category)
}

// CacheProductList stores a serialized product listing for a category
// ("" means the unfiltered listing).
func (c *Client) CacheProductList(ctx context.Context, category string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, productListKey(category), payload, ttl).Err()
}

// GetCachedProductList retrieves a cached listing. Returns (nil, nil)
// on a cache miss.
func (c *Client) GetCachedProductList(ctx context.Context, category string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, productListKey(category)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidateProductList drops the cached listings a new product in the
// given category would change.
func (c *Client) InvalidateProductList(ctx context.Context, category string) error {
	return c.rdb.Del(ctx, productListKey(""), productListKey(category)).Err()
}
