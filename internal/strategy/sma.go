package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// ErrInvalidPeriod reports a non-positive or inconsistent moving-average period.
var ErrInvalidPeriod = errors.New("invalid moving average period")

// SimpleMovingAverage returns the trailing mean for every index of values.
// Indices with fewer than period samples behind them are NaN.
func SimpleMovingAverage(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
	}
	out := make([]float64, len(values))
	if len(values) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}
	copy(out, talib.Sma(values, period))
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out, nil
}
