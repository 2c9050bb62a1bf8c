package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/pkg/pagination"
)

// ErrDuplicateSaleNumber is returned when another active sale already holds the number
var ErrDuplicateSaleNumber = errors.New("sale number already in use by an active sale")

// ErrSaleNotFound is returned by Update when the sale no longer exists
var ErrSaleNotFound = errors.New("sale not found")

// SaleRepository defines the interface for sale data operations.
// Lookups return (nil, nil) when nothing matches.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// Update saves the sale and replaces its items in one transaction.
	// It never inserts: a missing sale yields ErrSaleNotFound.
	Update(ctx context.Context, sale *entity.Sale) error
	// Delete removes the sale and its items; false means no such sale
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	// GetBySaleNumber only considers active sales
	GetBySaleNumber(ctx context.Context, saleNumber int) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	Branch     string
	Status     *enum.SaleStatus
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}
