// Package telemetry defines how the trading core reports to dashboards, stores and notifiers.
package telemetry

import (
	"github.com/Qwalex/IntradayBot/internal/signal"
)

// Level names used for OnLog.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Observer receives log lines worth surfacing and every realized trade.
type Observer interface {
	OnLog(level, message string, fields map[string]any)
	OnTrade(rec signal.TradeRecord)
}

// Observers fans every callback out to each member in order.
type Observers []Observer

// OnLog forwards to every observer.
func (o Observers) OnLog(level, message string, fields map[string]any) {
	for _, obs := range o {
		if obs != nil {
			obs.OnLog(level, message, fields)
		}
	}
}

// OnTrade forwards to every observer.
func (o Observers) OnTrade(rec signal.TradeRecord) {
	for _, obs := range o {
		if obs != nil {
			obs.OnTrade(rec)
		}
	}
}

// TradeFunc adapts a plain function into an Observer that ignores log lines.
type TradeFunc func(signal.TradeRecord)

// OnLog is a no-op.
func (f TradeFunc) OnLog(string, string, map[string]any) {}

// OnTrade calls f.
func (f TradeFunc) OnTrade(rec signal.TradeRecord) { f(rec) }

// Nop discards everything.
type Nop struct{}

func (Nop) OnLog(string, string, map[string]any) {}
func (Nop) OnTrade(signal.TradeRecord)           {}
