package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/application/service"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/request"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"github.com/sangkips/sales-api/pkg/apperror"
	"github.com/sangkips/sales-api/pkg/pagination"
)

const dateLayout = "2006-01-02"

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// List handles listing sales
func (h *SaleHandler) List(c *gin.Context) {
	var req request.SaleFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.NewBadRequestError("Invalid query parameters"))
		return
	}

	params, fieldErrs := filterParams(&req)
	if len(fieldErrs) > 0 {
		response.Error(c, apperror.NewValidationError(fieldErrs))
		return
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Sales retrieved successfully", result)
}

func filterParams(req *request.SaleFilterRequest) (*repository.SaleFilterParams, []apperror.FieldError) {
	var errs []apperror.FieldError
	params := &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    req.Page,
			PerPage: req.PerPage,
		},
		Branch:    req.Branch,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	if req.Status != "" {
		status, err := enum.ParseSaleStatus(req.Status)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "status", Message: "Status must be Active, Cancelled or Unknown", AttemptedValue: req.Status})
		} else {
			params.Status = &status
		}
	}

	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "customer_id", Message: "Customer id must be a valid UUID", AttemptedValue: req.CustomerID})
		} else {
			params.CustomerID = &customerID
		}
	}

	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "start_date", Message: "Start date must use YYYY-MM-DD", AttemptedValue: req.StartDate})
		} else {
			params.StartDate = &start
		}
	}

	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "end_date", Message: "End date must use YYYY-MM-DD", AttemptedValue: req.EndDate})
		} else {
			// inclusive of the whole end day
			end = end.Add(24*time.Hour - time.Nanosecond)
			params.EndDate = &end
		}
	}

	return params, errs
}

// Create handles creating a sale
func (h *SaleHandler) Create(c *gin.Context) {
	var req request.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewBadRequestError("Invalid request body"))
		return
	}

	result, err := h.saleService.CreateSale(c.Request.Context(), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale created successfully", result)
}

// Get handles getting a sale by ID
func (h *SaleHandler) Get(c *gin.Context) {
	result, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", result)
}

// Update handles replacing a sale
func (h *SaleHandler) Update(c *gin.Context) {
	var req request.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewBadRequestError("Invalid request body"))
		return
	}

	result, err := h.saleService.UpdateSale(c.Request.Context(), &service.UpdateSaleInput{
		ID:              c.Param("id"),
		CreateSaleInput: *req.ToInput(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale updated successfully", result)
}

// Delete handles deleting a sale
func (h *SaleHandler) Delete(c *gin.Context) {
	result, err := h.saleService.DeleteSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale deleted successfully", result)
}

// Cancel handles cancelling a sale
func (h *SaleHandler) Cancel(c *gin.Context) {
	result, err := h.saleService.CancelSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale cancelled successfully", result)
}
