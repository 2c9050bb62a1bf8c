package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// SaleResult is what callers and event subscribers see of a sale
type SaleResult struct {
	ID          uuid.UUID        `json:"id"`
	SaleNumber  int              `json:"sale_number"`
	Date        time.Time        `json:"date"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	TotalAmount Money            `json:"total_amount"`
	Branch      string           `json:"branch"`
	Status      enum.SaleStatus  `json:"status"`
	Items       []SaleItemResult `json:"items"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

type SaleItemResult struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitValue   Money     `json:"unit_value"`
	Discount    Money     `json:"discount"`
	TotalAmount Money     `json:"total_amount"`
}

// Money is an amount written to JSON as a number with exactly two decimals,
// e.g. 79.80. Decoding accepts any decimal form, quoted or not.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// DeleteResult acknowledges a delete
type DeleteResult struct {
	Success bool `json:"success"`
}

func NewSaleResult(sale *entity.Sale) *SaleResult {
	items := make([]SaleItemResult, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemResult{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitValue:   NewMoney(item.UnitValue),
			Discount:    NewMoney(item.Discount),
			TotalAmount: NewMoney(item.TotalAmount),
		}
	}
	return &SaleResult{
		ID:          sale.ID,
		SaleNumber:  sale.SaleNumber,
		Date:        sale.Date,
		CustomerID:  sale.CustomerID,
		TotalAmount: NewMoney(sale.TotalAmount),
		Branch:      sale.Branch,
		Status:      sale.Status,
		Items:       items,
		CreatedAt:   sale.CreatedAt,
		UpdatedAt:   sale.UpdatedAt,
	}
}
