package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/enum"
)

// Publisher delivers an encoded event to a named topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, partitionKey string) error
	Close() error
}

// Envelope wraps every outbound sale event
type Envelope struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload for the sale identified by aggregateID.
func NewEnvelope(kind enum.EventKind, aggregateID uuid.UUID, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:     uuid.New(),
		EventType:   kind.String(),
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     raw,
	}, nil
}

// SaleDeleted is the payload of a SaleCancelled event raised by a delete
type SaleDeleted struct {
	ID uuid.UUID `json:"id"`
}

// SaleItemCancelled is raised for each product an update removed from a sale
type SaleItemCancelled struct {
	SaleID      uuid.UUID `json:"sale_id"`
	Description string    `json:"description"`
}
