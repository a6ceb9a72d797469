package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/Qwalex/IntradayBot/internal/config"
	"github.com/Qwalex/IntradayBot/internal/exchange"
	"github.com/Qwalex/IntradayBot/internal/util"
)

// smoke checks connectivity by pulling a handful of candles.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML config")
	limit := flag.Int("limit", 5, "candles to fetch")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("apply env")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := exchange.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret,
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithCategory(cfg.Exchange.Category),
		exchange.WithTimeout(cfg.Timeout()),
		exchange.WithLogger(log),
	)
	defer client.Close()

	candles, err := client.FetchCandles(ctx, cfg.Exchange.Symbol, cfg.Exchange.Timeframe, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("smoke failed")
	}
	ev := log.Info().Int("len", len(candles))
	if n := len(candles); n > 0 {
		last := candles[n-1]
		ev = ev.Time("start", last.Start).
			Float64("open", last.Open).
			Float64("high", last.High).
			Float64("low", last.Low).
			Float64("close", last.Close).
			Float64("volume", last.Volume)
	}
	ev.Msg("smoke klines")
}
