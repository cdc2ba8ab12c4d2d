package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis shares JSON encoded values between processes. Every key written is
// tracked in a set so Purge removes only this cache's keys. A nil client
// turns every call into a miss or a no-op.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a cache storing keys under prefix for ttl
func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl}
}

// Verify interface compliance
var _ Cache[string] = (*Redis[string])(nil)

func (c *Redis[V]) key(key string) string {
	return c.prefix + ":" + key
}

func (c *Redis[V]) keySet() string {
	return c.prefix + ":keys"
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var value V
	if c.client == nil {
		return value, false, nil
	}

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return value, true, nil
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V) error {
	if c.client == nil {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(key), encoded, c.ttl)
	pipe.SAdd(ctx, c.keySet(), c.key(key))
	_, err = pipe.Exec(ctx)
	return err
}

func (c *Redis[V]) Purge(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	keys, err := c.client.SMembers(ctx, c.keySet()).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, c.keySet())...).Err()
}

// ConnectRedis opens a client and pings it, retrying with backoff up to attempts times
func ConnectRedis(ctx context.Context, address string, attempts int, logger *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		DB:       0,
		PoolSize: 100,
	})

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			logger.WithFields(logrus.Fields{"addr": address, "attempt": attempt}).Info("connected to redis")
			return client, nil
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{"addr": address, "attempt": attempt, "retry_in": sleep.String()}).
			Warnf("failed to connect redis: %v", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect redis at %s after %d attempts: %w", address, attempts, err)
}
