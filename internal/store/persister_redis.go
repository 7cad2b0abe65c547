package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"whitecarrot/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisPersister stores the document under a single Redis key
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister connects to Redis and checks the connection
func NewRedisPersister(ctx context.Context, cfg config.RedisStoreConfig, key string) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return &RedisPersister{client: client, key: key}, nil
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	return raw, nil
}

func (r *RedisPersister) Save(ctx context.Context, doc []byte) error {
	if err := r.client.Set(ctx, r.key, doc, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisPersister) Close() error {
	return r.client.Close()
}
