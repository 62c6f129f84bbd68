package notification

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes notification payloads over redis pub/sub. Connected
// clients subscribe to their notify:* channels; nothing is retained for
// offline clients — the durable store covers those.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(addr string) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a subscription for the given channel patterns; the
// server binary tails notify:* with it to log realtime deliveries.
func (p *RedisPublisher) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return p.client.PSubscribe(ctx, channels...)
}

// DeliveryLog drains pushed notification messages and records each delivery
// in the server log until ctx is cancelled or the channel closes. It is the
// audit tail of the pub/sub leg; the durable inbox lives in the store.
func DeliveryLog(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			slog.InfoContext(ctx, "notification pushed", "channel", msg.Channel)
		}
	}
}

// Close releases the redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
