package contracts

import (
	"context"
	"time"
)

// RedisRepository stores JSON-encoded values. It backs the sweep leader lock.
type RedisRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, exp time.Duration) error
	TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
	Expire(ctx context.Context, key string, exp time.Duration) error
	Delete(ctx context.Context, key string) error
}
