// Package redis provides the Redis client, the per-key distributed lock used
// to serialize pseudonym creation across processes, and the quality-report
// cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearlens/resolve/internal/config"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/pkg/errors"
)

// Client wraps a go-redis client with the configured key prefix.
type Client struct {
	rdb       *redis.Client
	keyPrefix string
	logger    logging.Logger
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.CodeCacheError, "redis connection failed")
	}

	log.Info("redis connection established", logging.String("addr", cfg.Addr))
	return &Client{rdb: rdb, keyPrefix: cfg.KeyPrefix, logger: log}, nil
}

// NewClientFromRedis wraps an existing go-redis client.  Used by tests to
// inject a mock.
func NewClientFromRedis(rdb *redis.Client, keyPrefix string, log logging.Logger) *Client {
	return &Client{rdb: rdb, keyPrefix: keyPrefix, logger: log}
}

// Key applies the configured prefix to a bare key.
func (c *Client) Key(parts ...string) string {
	key := c.keyPrefix
	for _, p := range parts {
		if key != "" {
			key += ":"
		}
		key += p
	}
	return key
}

// Underlying exposes the raw client for lock scripts and cache commands.
func (c *Client) Underlying() *redis.Client { return c.rdb }

// Health verifies the connection is still usable.
func (c *Client) Health(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, fmt.Sprintf("closing redis client: %v", err))
	}
	return nil
}
