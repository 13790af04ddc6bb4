package redis

import (
	"context"
	"crypto/tls"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kidpech/asso_api/internal/config"
)

// Client wraps the optional redis connection.
type Client struct {
	native *redis.Client
}

// Connect dials redis. An empty address disables redis and returns a nil
// client, whose methods are all safe to call.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	options := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(options)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warn("redis ping failed", zap.String("addr", cfg.Addr), zap.Error(err))
		}
		_ = client.Close()
		return nil, err
	}
	return &Client{native: client}, nil
}

// Raw exposes the go-redis client, nil when redis is disabled.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.native
}

// Ping reports connectivity for health checks.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.native == nil {
		return nil
	}
	return c.native.Ping(ctx).Err()
}

// Close redis connection.
func (c *Client) Close() error {
	if c == nil || c.native == nil {
		return nil
	}
	return c.native.Close()
}
