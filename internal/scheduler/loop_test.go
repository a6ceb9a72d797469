package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/exchange"
	"github.com/Qwalex/IntradayBot/internal/risk"
	"github.com/Qwalex/IntradayBot/internal/signal"
	"github.com/Qwalex/IntradayBot/internal/strategy"
)

type scriptedSource struct {
	closes []float64
	err    error
	calls  int
	block  chan struct{}
}

func (s *scriptedSource) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]signal.Candle, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]signal.Candle, len(s.closes))
	base := time.UnixMilli(1700000000000)
	for i, c := range s.closes {
		out[i] = signal.Candle{Start: base.Add(time.Duration(i) * time.Minute), Close: c}
	}
	return out, nil
}

type transition struct {
	side   signal.Side
	symbol string
	qty    float64
}

type recordingExecutor struct {
	transitions []transition
	err         error
}

func (r *recordingExecutor) Transition(_ context.Context, side signal.Side, symbol string, qty float64) error {
	r.transitions = append(r.transitions, transition{side, symbol, qty})
	return r.err
}

type tradeSink struct {
	trades []signal.TradeRecord
	logs   []string
}

func (s *tradeSink) OnLog(level, message string, _ map[string]any) {
	s.logs = append(s.logs, level+":"+message)
}
func (s *tradeSink) OnTrade(rec signal.TradeRecord) { s.trades = append(s.trades, rec) }

func stepSeries(n, stepAt int, before, after float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = before
		if i >= stepAt {
			out[i] = after
		}
	}
	return out
}

func newTestLoop(t *testing.T, src CandleSource, exec Executor, sink *tradeSink) *Loop {
	t.Helper()
	strat, err := strategy.NewSMACross(20, 50)
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}
	ids := 0
	return New(
		Config{Symbol: "BTCUSDT", Timeframe: "1"},
		src, strat, risk.Sizer{Notional: 50}, exec, sink, zerolog.Nop(),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDGenerator(func() string { ids++; return fmt.Sprintf("t%d", ids) }),
	)
}

func TestTickRepeatedSignalTransitionsOnce(t *testing.T) {
	src := &scriptedSource{closes: stepSeries(56, 55, 100, 110)}
	exec := &recordingExecutor{}
	sink := &tradeSink{}
	loop := newTestLoop(t, src, exec, sink)

	for i := 0; i < 2; i++ {
		if err := loop.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if len(exec.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(exec.transitions))
	}
	got := exec.transitions[0]
	if got.side != signal.SideBuy || got.symbol != "BTCUSDT" || got.qty != 0.454545 {
		t.Fatalf("unexpected transition %+v", got)
	}
	if len(sink.trades) != 1 {
		t.Fatalf("expected one trade record, got %d", len(sink.trades))
	}
	rec := sink.trades[0]
	if rec.ID != "t1" || rec.Price != 110 || rec.Qty != 0.454545 || rec.Side != signal.SideBuy {
		t.Fatalf("unexpected trade record %+v", rec)
	}
	if loop.LastSignal() != signal.Buy {
		t.Fatalf("expected last signal buy, got %s", loop.LastSignal())
	}
}

func TestTickReversalAfterOppositeSignal(t *testing.T) {
	src := &scriptedSource{closes: stepSeries(56, 55, 100, 110)}
	exec := &recordingExecutor{}
	loop := newTestLoop(t, src, exec, &tradeSink{})

	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("buy tick: %v", err)
	}
	src.closes = stepSeries(56, 55, 100, 90)
	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("sell tick: %v", err)
	}
	if len(exec.transitions) != 2 || exec.transitions[1].side != signal.SideSell {
		t.Fatalf("expected buy then sell, got %+v", exec.transitions)
	}
}

func TestTickHoldDoesNothing(t *testing.T) {
	src := &scriptedSource{closes: stepSeries(70, 0, 100, 100)}
	exec := &recordingExecutor{}
	loop := newTestLoop(t, src, exec, &tradeSink{})

	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(exec.transitions) != 0 || loop.LastSignal() != signal.Hold {
		t.Fatalf("expected no action, got %+v", exec.transitions)
	}
}

func TestTickFailedTransitionStillAdvancesSignal(t *testing.T) {
	src := &scriptedSource{closes: stepSeries(56, 55, 100, 110)}
	exec := &recordingExecutor{err: &exchange.ProtocolError{Op: "order.create", Code: 110007, Message: "insufficient balance"}}
	sink := &tradeSink{}
	loop := newTestLoop(t, src, exec, sink)

	err := loop.Tick(context.Background())
	var perr *exchange.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if faultKind(err) != "protocol" {
		t.Fatalf("expected protocol fault kind, got %s", faultKind(err))
	}
	if loop.LastSignal() != signal.Buy {
		t.Fatalf("expected last signal to advance, got %s", loop.LastSignal())
	}
	if len(sink.trades) != 0 {
		t.Fatalf("failed transition must not emit a trade")
	}

	exec.err = nil
	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(exec.transitions) != 1 {
		t.Fatalf("failed transition must not be retried, got %d attempts", len(exec.transitions))
	}
}

func TestTickFetchErrorKeepsState(t *testing.T) {
	src := &scriptedSource{err: &exchange.TransportError{Op: "kline", Err: context.DeadlineExceeded}}
	loop := newTestLoop(t, src, &recordingExecutor{}, &tradeSink{})

	err := loop.Tick(context.Background())
	if err == nil || faultKind(err) != "transport" {
		t.Fatalf("expected transport fault, got %v", err)
	}
	if loop.LastSignal() != signal.Hold {
		t.Fatalf("fetch failure must not change last signal")
	}
}

func TestTickRefusesOverlap(t *testing.T) {
	src := &scriptedSource{closes: stepSeries(56, 55, 100, 110), block: make(chan struct{})}
	exec := &recordingExecutor{}
	loop := newTestLoop(t, src, exec, &tradeSink{})

	done := make(chan error, 1)
	go func() { done <- loop.Tick(context.Background()) }()
	for !loop.running.Load() {
		time.Sleep(time.Millisecond)
	}

	if err := loop.Tick(context.Background()); !errors.Is(err, ErrTickInFlight) {
		t.Fatalf("expected ErrTickInFlight, got %v", err)
	}
	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if len(exec.transitions) != 1 {
		t.Fatalf("expected exactly one transition, got %d", len(exec.transitions))
	}
}

func TestRunLogsErrorsAndStopsOnCancel(t *testing.T) {
	src := &scriptedSource{err: errors.New("dns failure")}
	sink := &tradeSink{}
	loop := newTestLoop(t, src, &recordingExecutor{}, sink)
	loop.cfg.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := loop.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if src.calls < 2 {
		t.Fatalf("expected loop to keep ticking after errors, got %d calls", src.calls)
	}
	if len(sink.logs) == 0 || sink.logs[0] != "error:tick error" {
		t.Fatalf("expected tick errors surfaced to observer, got %v", sink.logs)
	}
}

func TestFaultKindComputation(t *testing.T) {
	_, err := risk.Sizer{Notional: 50}.Qty(0)
	if got := faultKind(fmt.Errorf("size: %w", err)); got != "computation" {
		t.Fatalf("expected computation, got %s", got)
	}
	if got := faultKind(errors.New("x")); got != "other" {
		t.Fatalf("expected other, got %s", got)
	}
}
