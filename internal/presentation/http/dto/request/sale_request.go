package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/application/service"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one line of a sale request
type SaleItemRequest struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
}

// SaleRequest is the body of create and update sale requests.
// Field rules are checked by the service so every violation is reported at once.
type SaleRequest struct {
	SaleNumber int               `json:"sale_number"`
	Date       time.Time         `json:"date"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Branch     string            `json:"branch"`
	Items      []SaleItemRequest `json:"items"`
}

func (r *SaleRequest) ToInput() *service.CreateSaleInput {
	items := make([]service.SaleItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.SaleItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitValue:   item.UnitValue,
		}
	}
	return &service.CreateSaleInput{
		SaleNumber: r.SaleNumber,
		Date:       r.Date,
		CustomerID: r.CustomerID,
		Branch:     r.Branch,
		Items:      items,
	}
}

// SaleFilterRequest represents sale filter parameters
type SaleFilterRequest struct {
	Branch     string `form:"branch"`
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}
