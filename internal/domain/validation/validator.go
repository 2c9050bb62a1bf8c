// Package validation checks sale input before it is priced or stored.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sangkips/sales-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

const (
	DefaultDescriptionMin        = 10
	DefaultDescriptionMax        = 200
	DefaultMaxQuantityPerProduct = 20
	MaxBranchLength              = 200
)

// ItemInput is one unpriced line of a sale command
type ItemInput struct {
	Description string
	Quantity    int
	UnitValue   decimal.Decimal
	Discount    *decimal.Decimal
}

// SaleInput is the content of a create or update command
type SaleInput struct {
	SaleNumber int
	Date       time.Time
	CustomerID uuid.UUID
	Branch     string
	Items      []ItemInput
}

type Result struct {
	Valid  bool
	Errors []apperror.FieldError
}

// Err returns nil for a valid result and a validation AppError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return apperror.NewValidationError(r.Errors)
}

type Validator struct {
	DescriptionMin        int
	DescriptionMax        int
	MaxQuantityPerProduct int
}

func NewValidator(descriptionMin, descriptionMax, maxQuantityPerProduct int) *Validator {
	if descriptionMin <= 0 {
		descriptionMin = DefaultDescriptionMin
	}
	if descriptionMax <= 0 {
		descriptionMax = DefaultDescriptionMax
	}
	if maxQuantityPerProduct <= 0 {
		maxQuantityPerProduct = DefaultMaxQuantityPerProduct
	}
	return &Validator{
		DescriptionMin:        descriptionMin,
		DescriptionMax:        descriptionMax,
		MaxQuantityPerProduct: maxQuantityPerProduct,
	}
}

// Validate collects every rule violation in input.
func (v *Validator) Validate(input SaleInput) Result {
	var errs []apperror.FieldError

	if len(input.Items) == 0 {
		errs = append(errs, apperror.FieldError{Field: "items", Message: "The items list cannot be empty"})
	}
	if input.SaleNumber <= 0 {
		errs = append(errs, apperror.FieldError{Field: "sale_number", Message: "Sale number must be greater than 0", AttemptedValue: input.SaleNumber})
	}
	if input.Date.IsZero() {
		errs = append(errs, apperror.FieldError{Field: "date", Message: "The date of sale is required"})
	}
	if strings.TrimSpace(input.Branch) == "" {
		errs = append(errs, apperror.FieldError{Field: "branch", Message: "Branch is required", AttemptedValue: input.Branch})
	} else if utf8.RuneCountInString(input.Branch) > MaxBranchLength {
		errs = append(errs, apperror.FieldError{
			Field:          "branch",
			Message:        fmt.Sprintf("Branch must not exceed %d characters", MaxBranchLength),
			AttemptedValue: input.Branch,
		})
	}

	for i, item := range input.Items {
		errs = append(errs, v.validateItem(i, item)...)
	}

	errs = append(errs, v.CheckProductLimits(input.SaleNumber, input.Items)...)

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func (v *Validator) validateItem(i int, item ItemInput) []apperror.FieldError {
	var errs []apperror.FieldError
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

	if strings.TrimSpace(item.Description) == "" {
		errs = append(errs, apperror.FieldError{Field: field("description"), Message: "Description is required", AttemptedValue: item.Description})
	} else if n := utf8.RuneCountInString(item.Description); n < v.DescriptionMin || n > v.DescriptionMax {
		errs = append(errs, apperror.FieldError{
			Field:          field("description"),
			Message:        fmt.Sprintf("Description must be between %d and %d characters", v.DescriptionMin, v.DescriptionMax),
			AttemptedValue: item.Description,
		})
	}
	if item.Quantity <= 0 {
		errs = append(errs, apperror.FieldError{Field: field("quantity"), Message: "Quantity must be greater than 0", AttemptedValue: item.Quantity})
	}
	if !item.UnitValue.IsPositive() {
		errs = append(errs, apperror.FieldError{Field: field("unit_value"), Message: "Unit value must be greater than 0", AttemptedValue: item.UnitValue.String()})
	}
	if item.Discount != nil && item.Discount.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: field("discount"), Message: "Discount must not be negative", AttemptedValue: item.Discount.String()})
	}
	return errs
}

// CheckProductLimits reports every product whose summed quantity exceeds
// MaxQuantityPerProduct, in order of first appearance. Non-positive quantities
// are left to the per-item rules and sums saturate at math.MaxInt.
func (v *Validator) CheckProductLimits(saleNumber int, items []ItemInput) []apperror.FieldError {
	totals := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := totals[item.Description]; !ok {
			order = append(order, item.Description)
			totals[item.Description] = 0
		}
		if item.Quantity <= 0 {
			continue
		}
		if totals[item.Description] > math.MaxInt-item.Quantity {
			totals[item.Description] = math.MaxInt
			continue
		}
		totals[item.Description] += item.Quantity
	}

	var errs []apperror.FieldError
	for _, description := range order {
		if totals[description] > v.MaxQuantityPerProduct {
			errs = append(errs, apperror.FieldError{
				Field: "items",
				Message: fmt.Sprintf("Sale %d: product %q exceeds the limit of %d units per product",
					saleNumber, description, v.MaxQuantityPerProduct),
				AttemptedValue: totals[description],
			})
		}
	}
	return errs
}

// ValidateID parses a sale identifier from a path or command.
func ValidateID(id string) (uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return uuid.Nil, apperror.NewValidationError([]apperror.FieldError{{Field: "id", Message: "Sale id is required"}})
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, apperror.NewValidationError([]apperror.FieldError{{Field: "id", Message: "Sale id must be a valid UUID", AttemptedValue: id}})
	}
	return parsed, nil
}
