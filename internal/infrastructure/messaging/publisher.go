// Package messaging implements event.Publisher on Redis streams, with a log
// fallback for environments without a broker.
package messaging

import (
	"context"

	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/event"
	"go.uber.org/zap"
)

// NewPublisher returns a RedisPublisher when an address is configured and a
// LogPublisher otherwise. Consumer groups for every event kind are created
// up front.
func NewPublisher(ctx context.Context, rc config.RedisConfig, ec config.EventsConfig, logger *zap.Logger) (event.Publisher, error) {
	if rc.Addr == "" {
		logger.Warn("REDIS_ADDR not set, sale events will only be logged")
		return NewLogPublisher(logger), nil
	}

	p := NewRedisPublisher(rc.Addr, rc.Password, rc.DB, logger)
	if err := p.Ping(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	for _, kind := range enum.EventKinds() {
		t := ec.Topic(kind)
		if err := p.EnsureGroup(ctx, t.Topic, t.Group); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	logger.Info("publishing sale events to redis", zap.String("addr", rc.Addr))
	return p, nil
}
