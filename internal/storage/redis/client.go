// Package redis implements storage.ClaimStore on Redis so several sniper
// processes can share one claim set.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces claim keys.
const DefaultKeyPrefix = "sniper:claim:"

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a go-redis Client.
type Client struct {
	rdb *redis.Client
}

// New creates a Client and pings it to verify connectivity.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
