// Package execution owns the bot's position state and realizes transitions in paper or live mode.
package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/exchange"
	"github.com/Qwalex/IntradayBot/internal/metrics"
	"github.com/Qwalex/IntradayBot/internal/signal"
)

// Mode selects between simulated and exchange-backed execution.
type Mode string

const (
	// Paper mutates only local state.
	Paper Mode = "paper"
	// Live routes orders to the exchange.
	Live Mode = "live"
)

// ResolveMode forces paper trading unless the paper flag is off and both credentials are present.
func ResolveMode(paperFlag bool, apiKey, apiSecret string) Mode {
	if paperFlag || apiKey == "" || apiSecret == "" {
		return Paper
	}
	return Live
}

// PositionSide is the direction of the held position.
type PositionSide string

const (
	// Flat means no position.
	Flat PositionSide = "None"
	// Long is held after a Buy.
	Long PositionSide = "Long"
	// Short is held after a Sell.
	Short PositionSide = "Short"
)

func sideOf(side signal.Side) PositionSide {
	if side == signal.SideSell {
		return Short
	}
	return Long
}

// Position is the engine's view of exposure.
type Position struct {
	Side     PositionSide
	Qty      float64
	AvgPrice float64
}

// Venue is the slice of the exchange client the engine drives in live mode.
type Venue interface {
	PlaceOrder(ctx context.Context, intent exchange.OrderIntent) (string, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}

// Engine holds the position and is its only writer.
type Engine struct {
	mu    sync.Mutex
	mode  Mode
	venue Venue
	pos   Position
	log   zerolog.Logger
}

// NewEngine builds an engine starting flat. A live engine without a venue falls back to paper.
func NewEngine(mode Mode, venue Venue, log zerolog.Logger) *Engine {
	if mode != Live || venue == nil {
		mode = Paper
	}
	return &Engine{
		mode:  mode,
		venue: venue,
		pos:   Position{Side: Flat},
		log:   log.With().Str("component", "execution").Str("mode", string(mode)).Logger(),
	}
}

// Mode reports whether the engine trades on paper or live.
func (e *Engine) Mode() Mode { return e.mode }

// Position returns a copy of the current position.
func (e *Engine) Position() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

// Open establishes exposure on side. Non-positive quantities are ignored.
func (e *Engine) Open(ctx context.Context, side signal.Side, symbol string, qty float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open(ctx, side, symbol, qty)
}

// CloseAll flattens the paper position, or cancels working orders on the exchange in live mode.
func (e *Engine) CloseAll(ctx context.Context, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeAll(ctx, symbol)
}

// Transition flattens and then opens on side as one serialized step.
func (e *Engine) Transition(ctx context.Context, side signal.Side, symbol string, qty float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closeAll(ctx, symbol); err != nil {
		return fmt.Errorf("flatten %s: %w", symbol, err)
	}
	if err := e.open(ctx, side, symbol, qty); err != nil {
		return fmt.Errorf("open %s %s: %w", side, symbol, err)
	}
	return nil
}

func (e *Engine) open(ctx context.Context, side signal.Side, symbol string, qty float64) error {
	if qty <= 0 {
		return nil
	}
	metrics.OrdersTotal.WithLabelValues(symbol, string(side), string(e.mode)).Inc()

	if e.mode == Paper {
		e.log.Info().Str("side", string(side)).Str("sym", symbol).Float64("qty", qty).Msg("[PAPER] open")
		// The average price is carried over from the previous position, not taken from the fill.
		e.pos = Position{Side: sideOf(side), Qty: qty, AvgPrice: e.pos.AvgPrice}
		return nil
	}

	orderID, err := e.venue.PlaceOrder(ctx, exchange.OrderIntent{Symbol: symbol, Side: side, Qty: qty})
	if err != nil {
		return err
	}
	e.log.Info().Str("side", string(side)).Str("sym", symbol).Float64("qty", qty).Str("order_id", orderID).Msg("market order placed")
	e.pos = Position{Side: sideOf(side), Qty: qty, AvgPrice: e.pos.AvgPrice}
	return nil
}

func (e *Engine) closeAll(ctx context.Context, symbol string) error {
	if e.mode == Paper {
		e.log.Info().Str("sym", symbol).Msg("[PAPER] close all")
		e.pos = Position{Side: Flat}
		return nil
	}
	if err := e.venue.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}
	e.log.Info().Str("sym", symbol).Msg("working orders canceled")
	e.pos = Position{Side: Flat}
	return nil
}
