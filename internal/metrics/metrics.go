package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Scheduler ticks that fetched market data"},
		[]string{"symbol"},
	)
	TicksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ticks_skipped_total", Help: "Ticks skipped because the previous one was still running"},
	)
	TickErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tick_errors_total", Help: "Tick failures by fault kind"},
		[]string{"kind"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals computed per tick"},
		[]string{"signal"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side", "mode"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, TicksSkipped, TickErrors, SignalsTotal, OrdersTotal)
}

// Run exposes /metrics on addr until ctx is canceled, then shuts the listener down.
func Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
