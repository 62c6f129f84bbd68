package gatekeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

// RedisStore keeps token bindings in redis so sessions survive process
// restarts and expiry is handled by the store itself.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func tokenKey(token string) string {
	return "gatekeeper:token:" + token
}

func (s *RedisStore) Put(ctx context.Context, token string, actor order.Actor, ttl time.Duration) error {
	payload, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("gatekeeper: encode actor: %w", err)
	}
	return s.client.Set(ctx, tokenKey(token), payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (order.Actor, error) {
	payload, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return order.Actor{}, ErrInvalidToken
	}
	if err != nil {
		return order.Actor{}, fmt.Errorf("gatekeeper: read token: %w", err)
	}
	var actor order.Actor
	if err := json.Unmarshal([]byte(payload), &actor); err != nil {
		return order.Actor{}, fmt.Errorf("gatekeeper: decode actor: %w", err)
	}
	return actor, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
