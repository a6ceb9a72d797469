// Package strategy turns closing-price history into trading signals.
package strategy

import (
	"fmt"
	"math"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

// SMACross compares a short and a long simple moving average over the whole window on every evaluation.
// It keeps no state between calls.
type SMACross struct {
	short int
	long  int
}

// NewSMACross validates the periods and builds the crossover evaluator.
func NewSMACross(shortPeriod, longPeriod int) (*SMACross, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, fmt.Errorf("%w: short=%d long=%d", ErrInvalidPeriod, shortPeriod, longPeriod)
	}
	if shortPeriod >= longPeriod {
		return nil, fmt.Errorf("%w: short %d must be below long %d", ErrInvalidPeriod, shortPeriod, longPeriod)
	}
	return &SMACross{short: shortPeriod, long: longPeriod}, nil
}

// Name returns the identifier for logging.
func (s *SMACross) Name() string { return "SMACross" }

// MinCloses reports how many closes are needed before a non-hold signal is possible.
func (s *SMACross) MinCloses() int { return s.long + 2 }

// Evaluate returns Buy when the short average crosses above the long one on the last close,
// Sell when it crosses below, Hold otherwise. A tie on the previous close counts as the prior side.
func (s *SMACross) Evaluate(closes []float64) signal.Signal {
	if len(closes) < s.MinCloses() {
		return signal.Hold
	}
	smaShort, err := SimpleMovingAverage(closes, s.short)
	if err != nil {
		return signal.Hold
	}
	smaLong, err := SimpleMovingAverage(closes, s.long)
	if err != nil {
		return signal.Hold
	}

	n := len(closes) - 1
	prevDiff := smaShort[n-1] - smaLong[n-1]
	lastDiff := smaShort[n] - smaLong[n]

	switch {
	case math.IsNaN(prevDiff) || math.IsNaN(lastDiff):
		return signal.Hold
	case prevDiff <= 0 && lastDiff > 0:
		return signal.Buy
	case prevDiff >= 0 && lastDiff < 0:
		return signal.Sell
	default:
		return signal.Hold
	}
}
