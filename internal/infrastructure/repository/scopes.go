package repository

import (
	"strings"

	domainRepo "github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/pkg/pagination"
	"gorm.io/gorm"
)

// saleSortColumns whitelists the columns a list can be ordered by
var saleSortColumns = map[string]string{
	"date":         "date",
	"sale_number":  "sale_number",
	"total_amount": "total_amount",
	"branch":       "branch",
	"created_at":   "created_at",
}

// SaleFilterScope returns a GORM scope applying the filters of params.
// Sorting and paging are left to the caller so the scope can be reused for counts.
func SaleFilterScope(params *domainRepo.SaleFilterParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Branch != "" {
			db = db.Where("branch ILIKE ?", "%"+params.Branch+"%")
		}
		if params.Status != nil {
			db = db.Where("status = ?", *params.Status)
		}
		if params.CustomerID != nil {
			db = db.Where("customer_id = ?", *params.CustomerID)
		}
		if params.StartDate != nil {
			db = db.Where("date >= ?", *params.StartDate)
		}
		if params.EndDate != nil {
			db = db.Where("date <= ?", *params.EndDate)
		}
		return db
	}
}

// SaleOrderScope orders by a whitelisted column, newest first by default.
// id breaks ties so pages stay stable.
func SaleOrderScope(sortBy, sortOrder string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column := "created_at"
		if col, ok := saleSortColumns[sortBy]; ok {
			column = col
		}
		direction := "DESC"
		if strings.EqualFold(sortOrder, "asc") {
			direction = "ASC"
		}
		return db.Order(column + " " + direction).Order("id ASC")
	}
}

// PaginateScope limits the query to one page; nil means the first default page
func PaginateScope(p *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	if p == nil {
		p = pagination.DefaultPagination()
	}
	return func(db *gorm.DB) *gorm.DB {
		p.Validate()
		return db.Offset(p.Offset()).Limit(p.PerPage)
	}
}
