package messaging

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, payload []byte, partitionKey string) error {
	p.logger.Info("event",
		zap.String("topic", topic),
		zap.String("key", partitionKey),
		zap.ByteString("payload", payload),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
