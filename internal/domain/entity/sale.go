package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale represents a sales transaction and its line items
type Sale struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleNumber  int             `gorm:"not null;uniqueIndex:idx_sales_active_number,where:status = 'Active'" json:"sale_number"`
	Date        time.Time       `gorm:"not null" json:"date"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Branch      string          `gorm:"size:200;not null;index" json:"branch"`
	Status      enum.SaleStatus `gorm:"type:varchar(20);not null;default:'Active';index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// Relationships
	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// IsActive reports whether the sale still holds its sale number
func (s *Sale) IsActive() bool {
	return s.Status == enum.SaleStatusActive
}

// RecalculateTotal sets TotalAmount to the sum of the item totals
func (s *Sale) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.TotalAmount)
	}
	s.TotalAmount = total
}

// Descriptions returns the distinct product descriptions in item order
func (s *Sale) Descriptions() []string {
	seen := make(map[string]struct{}, len(s.Items))
	out := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		if _, ok := seen[item.Description]; ok {
			continue
		}
		seen[item.Description] = struct{}{}
		out = append(out, item.Description)
	}
	return out
}

// SaleItem represents a single product line in a sale
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Description string          `gorm:"size:200;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitValue   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_value"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Position    int             `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale item
func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}
