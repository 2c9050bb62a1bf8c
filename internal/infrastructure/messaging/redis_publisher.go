package messaging

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldKey     = "key"
	fieldPayload = "payload"
)

// RedisPublisher appends events to Redis streams, one stream per topic
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
	logger *zap.Logger
}

func NewRedisPublisher(addr, password string, db int, logger *zap.Logger) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisPublisherFromClient(client, logger)
}

func NewRedisPublisherFromClient(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, maxLen: 100_000, logger: logger}
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// EnsureGroup creates group on topic, creating the stream if needed.
// An existing group is not an error.
func (p *RedisPublisher) EnsureGroup(ctx context.Context, topic, group string) error {
	err := p.client.XGroupCreateMkStream(ctx, topic, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, topic, err)
	}
	return nil
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload []byte, partitionKey string) error {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			fieldKey:     partitionKey,
			fieldPayload: payload,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", topic, err)
	}
	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("stream_id", id),
		zap.String("key", partitionKey),
	)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
