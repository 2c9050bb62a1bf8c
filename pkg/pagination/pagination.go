package pagination

import (
	"math"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Pagination describes the page returned to the client
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// PaginationParams represents input parameters for pagination
type PaginationParams struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

func DefaultPagination() *PaginationParams {
	return &PaginationParams{
		Page:    1,
		PerPage: DefaultPerPage,
	}
}

// Validate clamps the parameters into range
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func NewPagination(page, perPage int, total int64) *Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}

	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PaginatedResult represents a paginated result with items and pagination info
type PaginatedResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

func NewPaginatedResult[T any](items []T, pagination *Pagination) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:      items,
		Pagination: pagination,
	}
}
