package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/event"
	"github.com/sangkips/sales-api/internal/metrics"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 2 * time.Second

// Notifier publishes sale events after the change they describe is stored.
// Failures are logged and counted, never returned.
type Notifier struct {
	publisher event.Publisher
	events    config.EventsConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewNotifier(publisher event.Publisher, events config.EventsConfig, m *metrics.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		events:    events,
		metrics:   m,
		logger:    logger,
	}
}

// Notify makes exactly one publish attempt for kind. It is not cancelled
// with ctx since the change is already committed.
func (n *Notifier) Notify(ctx context.Context, kind enum.EventKind, saleID uuid.UUID, payload interface{}) {
	topic := n.events.Topic(kind)

	env, err := event.NewEnvelope(kind, saleID, payload)
	if err != nil {
		n.failed(kind, topic, saleID, err)
		return
	}
	body, err := json.Marshal(env)
	if err != nil {
		n.failed(kind, topic, saleID, err)
		return
	}

	timeout := n.events.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := n.publisher.Publish(pubCtx, topic.Topic, body, saleID.String()); err != nil {
		n.failed(kind, topic, saleID, err)
		return
	}

	n.logger.Debug("sale event published",
		zap.String("event", kind.String()),
		zap.String("topic", topic.Topic),
		zap.String("sale_id", saleID.String()),
		zap.String("event_id", env.EventID.String()),
	)
}

func (n *Notifier) failed(kind enum.EventKind, topic config.TopicConfig, saleID uuid.UUID, err error) {
	n.metrics.PublishFailed(kind.String())
	n.logger.Error("failed to publish sale event",
		zap.String("event", kind.String()),
		zap.String("topic", topic.Topic),
		zap.String("error_topic", topic.ErrorTopic),
		zap.String("sale_id", saleID.String()),
		zap.Error(err),
	)
}
