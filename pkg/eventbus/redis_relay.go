package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisRelay 基于 redis pub/sub 的跨进程转发
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisRelay(client redis.UniversalClient, keyPrefix string) *RedisRelay {
	if keyPrefix == "" {
		keyPrefix = "eds"
	}
	return &RedisRelay{
		client:  client,
		channel: keyPrefix + ":eventbus",
	}
}

func (r *RedisRelay) Forward(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, raw).Err()
}

func (r *RedisRelay) Listen(ctx context.Context, fn func(Event)) error {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("invalid relayed event", slog.String("error", err.Error()))
				continue
			}
			fn(e)
		}
	}
}

func (r *RedisRelay) Close() error {
	return nil
}
