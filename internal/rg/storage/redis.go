package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/responsible-gambling/internal/rg"
)

// Redis guarda o blob JSON em uma chave string.
// TTL zero = sem expiração (o estado vive enquanto o storage existir).
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(c *redis.Client) *Redis { return &Redis{Client: c} }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, rg.ErrNoState
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, key, value, r.TTL).Err()
}
