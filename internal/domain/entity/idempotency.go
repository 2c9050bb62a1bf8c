package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores a processed write so a retried request gets the same response
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_key_client;size:255;not null"`
	Client       string    `gorm:"uniqueIndex:idx_idempotency_key_client;size:100;not null"` // remote address of the caller
	Endpoint     string    `gorm:"size:255;not null"`                                         // e.g. "POST /api/v1/sales"
	RequestHash  string    `gorm:"size:64"`                                                   // hex sha256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
