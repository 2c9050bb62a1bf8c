// Package pricing assigns quantity-based discounts to the lines of a sale.
//
// Lines are grouped by product description. The summed quantity of a group
// picks a discount band and every line of the group gets that band's discount.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mode controls how a band's rate turns into a line discount
type Mode string

const (
	// ModeFlat subtracts the band rate itself from each line total.
	ModeFlat Mode = "flat"
	// ModePercentage subtracts rate × quantity × unit value from each line total.
	ModePercentage Mode = "percentage"
)

// ParseMode maps a configuration value to a Mode; empty means ModeFlat.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFlat:
		return ModeFlat, nil
	case ModePercentage:
		return ModePercentage, nil
	}
	return "", fmt.Errorf("unknown discount mode %q", s)
}

// Band is an inclusive quantity range and the rate applied inside it
type Band struct {
	Min  int
	Max  int
	Rate decimal.Decimal
}

// DefaultBands are checked in order; the last band containing the quantity wins.
var DefaultBands = []Band{
	{Min: 1, Max: 3, Rate: decimal.Zero},
	{Min: 4, Max: 9, Rate: decimal.RequireFromString("0.10")},
	{Min: 10, Max: 20, Rate: decimal.RequireFromString("0.20")},
}

var ErrQuantityOutOfBands = errors.New("quantity outside every discount band")

// LineInput is an unpriced sale line
type LineInput struct {
	Description string
	Quantity    int
	UnitValue   decimal.Decimal
}

// PricedLine is a LineInput with its discount and total filled in
type PricedLine struct {
	Description string
	Quantity    int
	UnitValue   decimal.Decimal
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
}

// Input returns the line without its pricing, for re-pricing.
func (p PricedLine) Input() LineInput {
	return LineInput{Description: p.Description, Quantity: p.Quantity, UnitValue: p.UnitValue}
}

// PricingError reports a failed discount calculation for one sale
type PricingError struct {
	SaleNumber int
	Cause      error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing sale %d: %v", e.SaleNumber, e.Cause)
}

func (e *PricingError) Unwrap() error {
	return e.Cause
}

type Engine struct {
	mode   Mode
	bands  []Band
	logger *zap.Logger
}

func NewEngine(mode Mode, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{mode: mode, bands: DefaultBands, logger: logger}
}

// WithBands returns a copy of e using bands instead of DefaultBands.
func (e *Engine) WithBands(bands []Band) *Engine {
	cp := *e
	cp.bands = append([]Band(nil), bands...)
	return &cp
}

func (e *Engine) Mode() Mode {
	return e.mode
}

// GroupQuantities sums quantities per exact description. Sums saturate at
// math.MaxInt so an oversized group never wraps back into a band.
func GroupQuantities(items []LineInput) map[string]int {
	totals := make(map[string]int, len(items))
	for _, item := range items {
		current := totals[item.Description]
		if item.Quantity > 0 && current > math.MaxInt-item.Quantity {
			totals[item.Description] = math.MaxInt
			continue
		}
		totals[item.Description] = current + item.Quantity
	}
	return totals
}

// RateFor returns the rate of the last band containing quantity.
func (e *Engine) RateFor(quantity int) (decimal.Decimal, error) {
	var (
		rate  decimal.Decimal
		found bool
	)
	for _, b := range e.bands {
		if quantity >= b.Min && quantity <= b.Max {
			rate = b.Rate
			found = true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrQuantityOutOfBands, quantity)
	}
	return rate, nil
}

// Apply prices items for the sale identified by saleNumber. Output order
// matches input order and inputs are not modified. Every failure is a
// *PricingError.
func (e *Engine) Apply(saleNumber int, items []LineInput) (out []PricedLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = e.fail(saleNumber, fmt.Errorf("recovered: %v", r))
		}
	}()

	groups := GroupQuantities(items)
	rates := make(map[string]decimal.Decimal, len(groups))
	for description, quantity := range groups {
		rate, rerr := e.RateFor(quantity)
		if rerr != nil {
			return nil, e.fail(saleNumber, fmt.Errorf("product %q: %w", description, rerr))
		}
		rates[description] = rate
	}

	out = make([]PricedLine, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, e.fail(saleNumber, fmt.Errorf("items[%d]: non-positive quantity %d", i, item.Quantity))
		}
		gross := item.UnitValue.Mul(decimal.NewFromInt(int64(item.Quantity)))
		discount := e.discount(gross, rates[item.Description])
		total := gross.Sub(discount)
		if total.IsNegative() {
			return nil, e.fail(saleNumber, fmt.Errorf("items[%d]: discount %s exceeds line value %s", i, discount, gross))
		}
		out[i] = PricedLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitValue:   item.UnitValue,
			Discount:    discount,
			TotalAmount: total,
		}
	}
	return out, nil
}

func (e *Engine) discount(gross, rate decimal.Decimal) decimal.Decimal {
	if e.mode == ModePercentage {
		return gross.Mul(rate).Round(2)
	}
	return rate
}

func (e *Engine) fail(saleNumber int, cause error) *PricingError {
	e.logger.Error("failed to apply discounts",
		zap.Int("sale_number", saleNumber),
		zap.Error(cause),
	)
	return &PricingError{SaleNumber: saleNumber, Cause: cause}
}
