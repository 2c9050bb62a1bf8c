package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	domainRepo "github.com/sangkips/sales-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("sale_items.position ASC")
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	numberItems(sale)
	err := r.db.WithContext(ctx).Create(sale).Error
	if isUniqueViolation(err) {
		return domainRepo.ErrDuplicateSaleNumber
	}
	return err
}

func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale) error {
	numberItems(sale)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := updateSaleRow(tx, sale)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainRepo.ErrSaleNotFound
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&entity.SaleItem{}).Error; err != nil {
			return err
		}
		if len(sale.Items) == 0 {
			return nil
		}
		return tx.Create(&sale.Items).Error
	})
	if isUniqueViolation(err) {
		return domainRepo.ErrDuplicateSaleNumber
	}
	return err
}

// updateSaleRow writes every column of sale, zero values included, without upserting
func updateSaleRow(tx *gorm.DB, sale *entity.Sale) *gorm.DB {
	return tx.Model(sale).Select("*").Omit(clause.Associations).Updates(sale)
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&entity.Sale{ID: id})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) GetBySaleNumber(ctx context.Context, saleNumber int) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("sale_number = ? AND status = ?", saleNumber, enum.SaleStatusActive).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Sale{}).Scopes(SaleFilterScope(params))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Scopes(SaleOrderScope(params.SortBy, params.SortOrder), PaginateScope(params.Pagination)).
		Preload("Items", preloadItems).
		Find(&sales).Error

	return sales, total, err
}

func numberItems(sale *entity.Sale) {
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		sale.Items[i].Position = i
	}
}

// isUniqueViolation matches both gorm's translated error and a raw postgres 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
