// Package risk sizes orders against a fixed notional budget.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// QtyDecimals is the precision order quantities are rounded to.
const QtyDecimals = 6

// ErrInvalidPrice is returned when sizing is attempted against a non-positive or non-finite price.
var ErrInvalidPrice = errors.New("price must be positive")

// Sizer converts a fixed notional into an order quantity.
// RiskPerTrade is carried from configuration but does not influence sizing.
type Sizer struct {
	Notional     float64
	RiskPerTrade float64
}

// Qty returns Notional/price rounded to six decimals.
func (s Sizer) Qty(price float64) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	qty := decimal.NewFromFloat(s.Notional).
		Div(decimal.NewFromFloat(price)).
		Round(QtyDecimals)
	out, _ := qty.Float64()
	return out, nil
}
