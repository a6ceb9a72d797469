// Package scheduler drives the fetch → signal → size → execute cycle on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/exchange"
	"github.com/Qwalex/IntradayBot/internal/metrics"
	"github.com/Qwalex/IntradayBot/internal/risk"
	"github.com/Qwalex/IntradayBot/internal/signal"
	"github.com/Qwalex/IntradayBot/internal/strategy"
	"github.com/Qwalex/IntradayBot/internal/telemetry"
)

const (
	// DefaultInterval is the pause between ticks.
	DefaultInterval = 15 * time.Second
	// DefaultCandleLimit is how many recent candles each tick requests.
	DefaultCandleLimit = 200
)

// ErrTickInFlight is returned when Tick is entered while another tick is still running.
var ErrTickInFlight = errors.New("previous tick still running")

// CandleSource provides recent market data.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]signal.Candle, error)
}

// Executor realizes a flatten-then-open transition.
type Executor interface {
	Transition(ctx context.Context, side signal.Side, symbol string, qty float64) error
}

// Config holds the loop's market selection and cadence.
type Config struct {
	Symbol      string
	Timeframe   string
	CandleLimit int
	Interval    time.Duration
}

// Loop is the single driver of trading decisions. It remembers the last signal it acted on.
type Loop struct {
	cfg      Config
	source   CandleSource
	strat    strategy.Strategy
	sizer    risk.Sizer
	exec     Executor
	observer telemetry.Observer
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	running    atomic.Bool
	lastSignal signal.Signal
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock overrides the time source used for trade records.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides trade id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Loop) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// New wires a loop. A nil observer discards telemetry.
func New(cfg Config, source CandleSource, strat strategy.Strategy, sizer risk.Sizer, exec Executor, observer telemetry.Observer, log zerolog.Logger, opts ...Option) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = DefaultCandleLimit
	}
	if observer == nil {
		observer = telemetry.Nop{}
	}
	l := &Loop{
		cfg:        cfg,
		source:     source,
		strat:      strat,
		sizer:      sizer,
		exec:       exec,
		observer:   observer,
		log:        log.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
		lastSignal: signal.Hold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LastSignal reports the most recent signal the loop acted upon.
func (l *Loop) LastSignal() signal.Signal { return l.lastSignal }

// Run ticks immediately and then every interval until ctx is canceled.
// Ticks run on this goroutine only, so a slow tick delays the next one instead of overlapping it.
func (l *Loop) Run(ctx context.Context) error {
	l.runTick(ctx)
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runTick(ctx)
		}
	}
}

func (l *Loop) runTick(ctx context.Context) {
	err := l.Tick(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrTickInFlight):
		metrics.TicksSkipped.Inc()
	case ctx.Err() != nil:
	default:
		kind := faultKind(err)
		metrics.TickErrors.WithLabelValues(kind).Inc()
		l.log.Error().Err(err).Str("kind", kind).Str("symbol", l.cfg.Symbol).Msg("tick error")
		l.observer.OnLog(telemetry.LevelError, "tick error", map[string]any{
			"error":  err.Error(),
			"kind":   kind,
			"symbol": l.cfg.Symbol,
		})
	}
}

// Tick performs one fetch → signal → execute cycle. It refuses to run concurrently with itself.
func (l *Loop) Tick(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer l.running.Store(false)

	candles, err := l.source.FetchCandles(ctx, l.cfg.Symbol, l.cfg.Timeframe, l.cfg.CandleLimit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	metrics.TicksTotal.WithLabelValues(l.cfg.Symbol).Inc()
	if len(candles) == 0 {
		return nil
	}

	closes := signal.Closes(candles)
	sig := l.strat.Evaluate(closes)
	metrics.SignalsTotal.WithLabelValues(string(sig)).Inc()

	side, actionable := sig.Side()
	if !actionable || sig == l.lastSignal {
		return nil
	}

	lastPrice := closes[len(closes)-1]
	qty, err := l.sizer.Qty(lastPrice)
	if err != nil {
		return fmt.Errorf("size %s at %v: %w", sig, lastPrice, err)
	}

	err = l.exec.Transition(ctx, side, l.cfg.Symbol, qty)
	// A failed transition is not retried on later ticks unless the signal flips again.
	l.lastSignal = sig
	if err != nil {
		l.log.Error().Err(err).
			Str("signal", string(sig)).
			Float64("price", lastPrice).
			Float64("qty", qty).
			Str("symbol", l.cfg.Symbol).
			Msg("transition failed")
		return fmt.Errorf("%s transition: %w", sig, err)
	}

	rec := signal.TradeRecord{
		ID:     l.newID(),
		Time:   l.now(),
		Symbol: l.cfg.Symbol,
		Side:   side,
		Qty:    qty,
		Price:  lastPrice,
	}
	l.log.Info().
		Str("signal", string(sig)).
		Float64("lastPrice", lastPrice).
		Float64("qty", qty).
		Str("symbol", l.cfg.Symbol).
		Msgf("%s signal executed", side)
	l.observer.OnLog(telemetry.LevelInfo, fmt.Sprintf("%s signal executed", side), map[string]any{
		"lastPrice": lastPrice,
		"qty":       qty,
		"symbol":    l.cfg.Symbol,
	})
	l.observer.OnTrade(rec)
	return nil
}

func faultKind(err error) string {
	var (
		perr *exchange.ProtocolError
		terr *exchange.TransportError
	)
	switch {
	case errors.As(err, &perr):
		return "protocol"
	case errors.As(err, &terr):
		return "transport"
	case errors.Is(err, risk.ErrInvalidPrice):
		return "computation"
	default:
		return "other"
	}
}
