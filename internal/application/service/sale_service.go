package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/event"
	"github.com/sangkips/sales-api/internal/domain/pricing"
	"github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/internal/domain/validation"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/pkg/apperror"
	"github.com/sangkips/sales-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService coordinates validation, pricing, storage and notification of sales
type SaleService struct {
	saleRepo  repository.SaleRepository
	validator *validation.Validator
	pricing   *pricing.Engine
	notifier  *Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo repository.SaleRepository,
	validator *validation.Validator,
	engine *pricing.Engine,
	notifier *Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		saleRepo:  saleRepo,
		validator: validator,
		pricing:   engine,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// SaleItemInput represents a line in a sale command
type SaleItemInput struct {
	Description string
	Quantity    int
	UnitValue   decimal.Decimal
}

// CreateSaleInput represents the create sale input
type CreateSaleInput struct {
	SaleNumber int
	Date       time.Time
	CustomerID uuid.UUID
	Branch     string
	Items      []SaleItemInput
}

// UpdateSaleInput replaces the content of the sale identified by ID
type UpdateSaleInput struct {
	ID string
	CreateSaleInput
}

func (in *CreateSaleInput) validationInput() validation.SaleInput {
	items := make([]validation.ItemInput, len(in.Items))
	for i, item := range in.Items {
		items[i] = validation.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitValue:   item.UnitValue,
		}
	}
	return validation.SaleInput{
		SaleNumber: in.SaleNumber,
		Date:       in.Date,
		CustomerID: in.CustomerID,
		Branch:     in.Branch,
		Items:      items,
	}
}

// CreateSale validates, prices and stores a new sale, then publishes SaleCreated
func (s *SaleService) CreateSale(ctx context.Context, input *CreateSaleInput) (result *SaleResult, err error) {
	defer func() { s.observe("create", err) }()

	vin := input.validationInput()
	if err := s.validator.Validate(vin).Err(); err != nil {
		return nil, err
	}

	if len(input.Items) > 0 {
		existing, err := s.saleRepo.GetBySaleNumber(ctx, input.SaleNumber)
		if err != nil {
			return nil, s.persistenceError("checking", saleNumberSubject(input.SaleNumber), err)
		}
		if existing != nil {
			return nil, duplicateNumberError(input.SaleNumber)
		}
	}

	sale := &entity.Sale{
		ID:         uuid.New(),
		SaleNumber: input.SaleNumber,
		Date:       input.Date.UTC(),
		CustomerID: input.CustomerID,
		Branch:     input.Branch,
		Status:     enum.SaleStatusActive,
	}

	if err := s.priceItems(sale, nil, vin.Items); err != nil {
		return nil, err
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		if errors.Is(err, repository.ErrDuplicateSaleNumber) {
			return nil, duplicateNumberError(sale.SaleNumber)
		}
		return nil, s.persistenceError("creating", saleNumberSubject(sale.SaleNumber), err)
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("sale_number", sale.SaleNumber),
		zap.String("total_amount", sale.TotalAmount.String()),
	)

	result = NewSaleResult(sale)
	s.notifier.Notify(ctx, enum.EventSaleCreated, sale.ID, result)
	return result, nil
}

// UpdateSale replaces the fields and items of an existing sale and reprices it.
// Products dropped by the update are announced with SaleItemCancelled.
func (s *SaleService) UpdateSale(ctx context.Context, input *UpdateSaleInput) (result *SaleResult, err error) {
	defer func() { s.observe("update", err) }()

	vin := input.validationInput()
	var fieldErrs []apperror.FieldError
	id, idErr := validation.ValidateID(input.ID)
	if idErr != nil {
		fieldErrs = append(fieldErrs, apperror.GetAppError(idErr).Errors...)
	}
	fieldErrs = append(fieldErrs, s.validator.Validate(vin).Errors...)
	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}

	existing, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistenceError("loading", saleIDSubject(id), err)
	}
	if existing == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	if existing.Status == enum.SaleStatusCancelled {
		return nil, apperror.NewConflictError("Cancelled sales cannot be modified")
	}

	now := time.Now().UTC()
	sale := *existing
	sale.SaleNumber = input.SaleNumber
	sale.Date = input.Date.UTC()
	sale.CustomerID = input.CustomerID
	sale.Branch = input.Branch
	sale.UpdatedAt = &now

	if sale.SaleNumber != existing.SaleNumber {
		holder, err := s.saleRepo.GetBySaleNumber(ctx, sale.SaleNumber)
		if err != nil {
			return nil, s.persistenceError("checking", saleNumberSubject(sale.SaleNumber), err)
		}
		if holder != nil && holder.ID != sale.ID && holder.IsActive() {
			return nil, duplicateNumberError(sale.SaleNumber)
		}
	}

	if err := s.priceItems(&sale, &now, vin.Items); err != nil {
		return nil, err
	}

	if err := s.saleRepo.Update(ctx, &sale); err != nil {
		if errors.Is(err, repository.ErrDuplicateSaleNumber) {
			return nil, duplicateNumberError(sale.SaleNumber)
		}
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, apperror.NewNotFoundError("Sale")
		}
		return nil, s.persistenceError("updating", saleIDSubject(sale.ID), err)
	}

	s.logger.Info("sale updated",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("sale_number", sale.SaleNumber),
		zap.String("total_amount", sale.TotalAmount.String()),
	)

	result = NewSaleResult(&sale)
	s.notifier.Notify(ctx, enum.EventSaleModified, sale.ID, result)
	for _, description := range removedProducts(existing, &sale) {
		s.notifier.Notify(ctx, enum.EventSaleItemCancelled, sale.ID, event.SaleItemCancelled{
			SaleID:      sale.ID,
			Description: description,
		})
	}
	return result, nil
}

// DeleteSale removes a sale and its items, then publishes SaleCancelled
func (s *SaleService) DeleteSale(ctx context.Context, rawID string) (result *DeleteResult, err error) {
	defer func() { s.observe("delete", err) }()

	id, err := validation.ValidateID(rawID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.saleRepo.Delete(ctx, id)
	if err != nil {
		return nil, s.persistenceError("deleting", saleIDSubject(id), err)
	}
	if !deleted {
		return nil, apperror.NewNotFoundError("Sale")
	}

	s.logger.Info("sale deleted", zap.String("sale_id", id.String()))
	s.notifier.Notify(ctx, enum.EventSaleCancelled, id, event.SaleDeleted{ID: id})
	return &DeleteResult{Success: true}, nil
}

// CancelSale marks a sale as cancelled, which frees its sale number
func (s *SaleService) CancelSale(ctx context.Context, rawID string) (result *SaleResult, err error) {
	defer func() { s.observe("cancel", err) }()

	id, err := validation.ValidateID(rawID)
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistenceError("loading", saleIDSubject(id), err)
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	if sale.Status == enum.SaleStatusCancelled {
		return nil, apperror.NewConflictError("Sale is already cancelled")
	}

	now := time.Now().UTC()
	sale.Status = enum.SaleStatusCancelled
	sale.UpdatedAt = &now

	if err := s.saleRepo.Update(ctx, sale); err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, apperror.NewNotFoundError("Sale")
		}
		return nil, s.persistenceError("cancelling", saleIDSubject(id), err)
	}

	s.logger.Info("sale cancelled", zap.String("sale_id", id.String()), zap.Int("sale_number", sale.SaleNumber))

	result = NewSaleResult(sale)
	s.notifier.Notify(ctx, enum.EventSaleCancelled, sale.ID, result)
	return result, nil
}

// GetSale retrieves a sale by ID
func (s *SaleService) GetSale(ctx context.Context, rawID string) (result *SaleResult, err error) {
	defer func() { s.observe("get", err) }()

	id, err := validation.ValidateID(rawID)
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistenceError("loading", saleIDSubject(id), err)
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return NewSaleResult(sale), nil
}

// ListSales lists sales with filtering
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (result *pagination.PaginatedResult[SaleResult], err error) {
	defer func() { s.observe("list", err) }()

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, s.persistenceError("listing", "sales", err)
	}

	items := make([]SaleResult, len(sales))
	for i := range sales {
		items[i] = *NewSaleResult(&sales[i])
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(items, pag), nil
}

// priceItems checks the per-product limit, prices the lines and sets them on
// sale together with its total. Sales without lines are left untouched.
func (s *SaleService) priceItems(sale *entity.Sale, updatedAt *time.Time, lines []validation.ItemInput) error {
	if len(lines) == 0 {
		return nil
	}

	if errs := s.validator.CheckProductLimits(sale.SaleNumber, lines); len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}

	in := make([]pricing.LineInput, len(lines))
	for i, line := range lines {
		in[i] = pricing.LineInput{Description: line.Description, Quantity: line.Quantity, UnitValue: line.UnitValue}
	}

	priced, err := s.pricing.Apply(sale.SaleNumber, in)
	if err != nil {
		return apperror.NewPricingError(sale.SaleNumber, err)
	}

	items := make([]entity.SaleItem, len(priced))
	for i, p := range priced {
		items[i] = entity.SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			Description: p.Description,
			Quantity:    p.Quantity,
			UnitValue:   p.UnitValue,
			Discount:    p.Discount,
			TotalAmount: p.TotalAmount,
			UpdatedAt:   updatedAt,
		}
	}
	sale.Items = items
	sale.RecalculateTotal()
	return nil
}

func (s *SaleService) persistenceError(op, subject string, cause error) error {
	s.logger.Error("sale persistence failure",
		zap.String("operation", op),
		zap.String("subject", subject),
		zap.Time("at", time.Now().UTC()),
		zap.Error(cause),
	)
	return apperror.NewPersistenceError(op, subject, cause)
}

func (s *SaleService) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperror.GetAppError(err).Kind)
	}
	s.metrics.ObserveOperation(operation, outcome)
}

func duplicateNumberError(saleNumber int) error {
	return apperror.NewConflictError(fmt.Sprintf("Sale number %d already exists", saleNumber))
}

func saleNumberSubject(n int) string {
	return fmt.Sprintf("sale number %d", n)
}

func saleIDSubject(id uuid.UUID) string {
	return "sale " + id.String()
}

// removedProducts lists descriptions present in before but absent from after.
func removedProducts(before, after *entity.Sale) []string {
	kept := make(map[string]struct{}, len(after.Items))
	for _, item := range after.Items {
		kept[item.Description] = struct{}{}
	}
	var removed []string
	for _, description := range before.Descriptions() {
		if _, ok := kept[description]; !ok {
			removed = append(removed, description)
		}
	}
	return removed
}
