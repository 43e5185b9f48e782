package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lodgekeep/lodgekeep/pkg/config"
	"github.com/lodgekeep/lodgekeep/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "lk"
	storePrefix  = "store"
)

// Client wraps the redis connection with the whole-collection hash surface
// the record stores need.
type Client struct {
	raw *redis.Client
}

// New bootstraps a Redis client with pooling/timeouts and verifies
// connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// StoreKey returns the namespaced hash key backing a record store.
func (c *Client) StoreKey(name string) string {
	return c.buildKey(storePrefix, name)
}

// ReadHash returns every field of the hash stored at key.
func (c *Client) ReadHash(ctx context.Context, key string) (map[string]string, error) {
	if c.raw == nil {
		return nil, errors.New("redis client not initialized")
	}
	return c.raw.HGetAll(ctx, key).Result()
}

// ReplaceHash overwrites the hash at key with the provided fields. The delete
// and the rewrite travel in one transactional pipeline so readers never see a
// partially written collection.
func (c *Client) ReplaceHash(ctx context.Context, key string, fields map[string]string) error {
	if c.raw == nil {
		return errors.New("redis client not initialized")
	}
	_, err := c.raw.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			values := make(map[string]any, len(fields))
			for field, value := range fields {
				values[field] = value
			}
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	return err
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.raw == nil {
		return errors.New("redis client not initialized")
	}
	return c.raw.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
