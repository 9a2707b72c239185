package mq

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisProducer implements Producer on Redis Streams (XADD per event).
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()

	if err != nil {
		return fmt.Errorf("redis xadd error: %w", err)
	}
	return nil
}

// Close is a no-op; the shared redis client is owned by the caller.
func (p *RedisProducer) Close() error {
	return nil
}
