package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/sales-api/internal/domain/entity"
	domainRepo "github.com/sangkips/sales-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, client string) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND client = ?", key, client).
		First(&ikey).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ikey, nil
}

// Create overwrites an expired entry for the same key and client.
func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "client"}},
			DoUpdates: clause.AssignmentColumns([]string{"endpoint", "request_hash", "response_code", "response_body", "expires_at"}),
		}).
		Create(ikey).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
