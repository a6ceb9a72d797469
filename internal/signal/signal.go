// Package signal standardizes payloads shared between market data, strategy, execution and telemetry layers.
package signal

import "time"

// Candle is one aggregated price bar returned by the exchange.
type Candle struct {
	Start  time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts closing prices preserving candle order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Signal expresses the trading bias produced by a strategy for the latest candle.
type Signal string

const (
	// Hold means no action.
	Hold Signal = "hold"
	// Buy means the short average crossed above the long average.
	Buy Signal = "buy"
	// Sell means the short average crossed below the long average.
	Sell Signal = "sell"
)

// Side returns the order side a signal maps to; ok is false for Hold.
func (s Signal) Side() (side Side, ok bool) {
	switch s {
	case Buy:
		return SideBuy, true
	case Sell:
		return SideSell, true
	default:
		return "", false
	}
}

// Side enumerates order directions in the exchange's spelling.
type Side string

const (
	// SideBuy opens or extends a long.
	SideBuy Side = "Buy"
	// SideSell opens or extends a short.
	SideSell Side = "Sell"
)

// TradeRecord describes one realized position transition handed to telemetry.
type TradeRecord struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol"`
	Side   Side      `json:"side"`
	Qty    float64   `json:"qty"`
	Price  float64   `json:"price"`
}
