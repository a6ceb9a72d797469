package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/config"
	"github.com/Qwalex/IntradayBot/internal/exchange"
	"github.com/Qwalex/IntradayBot/internal/execution"
	"github.com/Qwalex/IntradayBot/internal/history"
	"github.com/Qwalex/IntradayBot/internal/metrics"
	"github.com/Qwalex/IntradayBot/internal/notify"
	"github.com/Qwalex/IntradayBot/internal/risk"
	"github.com/Qwalex/IntradayBot/internal/scheduler"
	"github.com/Qwalex/IntradayBot/internal/strategy"
	"github.com/Qwalex/IntradayBot/internal/telemetry"
	"github.com/Qwalex/IntradayBot/internal/util"
	"github.com/Qwalex/IntradayBot/internal/web"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML config")
	flag.Parse()

	boot := util.NewLogger("info")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		boot.Fatal().Err(err).Msg("apply env")
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("validate config")
	}

	log, logFile, err := util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		boot.Fatal().Err(err).Msg("open log file")
	}
	defer logFile.Close()

	if !cfg.HasCredentials() {
		log.Warn().Msg("BYBIT_API_KEY/BYBIT_API_SECRET empty, paper mode forced")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Listeners shut down on ctx cancel; main waits for them before exiting.
	var listeners sync.WaitGroup
	if cfg.App.MetricsAddr != "" {
		listeners.Add(1)
		go func() {
			defer listeners.Done()
			log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
			if err := metrics.Run(ctx, cfg.App.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics stopped")
			}
		}()
	}

	client := exchange.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret,
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithCategory(cfg.Exchange.Category),
		exchange.WithTimeout(cfg.Timeout()),
		exchange.WithLogger(log.With().Str("component", "bybit").Logger()),
	)
	defer client.Close()

	mode := execution.ResolveMode(cfg.Paper.Enabled, cfg.Exchange.APIKey, cfg.Exchange.APISecret)
	engine := execution.NewEngine(mode, client, log)
	if mode == execution.Live {
		if err := client.SetLeverage(ctx, cfg.Exchange.Symbol, cfg.Risk.Leverage, cfg.Risk.Leverage); err != nil {
			log.Warn().Err(err).Float64("leverage", cfg.Risk.Leverage).Msg("set leverage")
		}
	}

	strat, err := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		ShortPeriod: cfg.Strategy.Params.ShortPeriod,
		LongPeriod:  cfg.Strategy.Params.LongPeriod,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build strategy")
	}
	sizer := risk.Sizer{Notional: cfg.Risk.OrderNotional, RiskPerTrade: cfg.Risk.RiskPerTrade}

	store := history.NewStore(history.DefaultCapacity)
	observers := telemetry.Observers{store}

	journal, err := history.OpenJournal(cfg.Journal.Driver, cfg.Journal.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open journal")
	}
	if journal != nil {
		defer journal.Close()
		if src, ok := journal.(history.TradeSource); ok {
			if err := store.Restore(ctx, src); err != nil {
				log.Warn().Err(err).Msg("restore trade history")
			}
		}
		observers = append(observers, history.JournalObserver(journal, log))
	}

	webOpts := []web.Option{web.WithLogFile(cfg.App.LogFile)}
	if cfg.Web.HTTPSEnabled {
		webOpts = append(webOpts, web.WithTLS(cfg.Web.CertPath, cfg.Web.KeyPath))
	}
	dashboard, err := web.NewServer(cfg.Web.Port, store, log, webOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("build dashboard")
	}
	observers = append(observers, dashboard)
	listeners.Add(1)
	go func() {
		defer listeners.Done()
		if err := dashboard.Run(ctx); err != nil {
			log.Error().Err(err).Msg("dashboard stopped")
		}
	}()

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram disabled")
		} else {
			observers = append(observers, tg)
			go tg.Run(ctx)
		}
	}

	loop := scheduler.New(scheduler.Config{
		Symbol:      cfg.Exchange.Symbol,
		Timeframe:   cfg.Exchange.Timeframe,
		CandleLimit: cfg.Scheduler.CandleLimit,
		Interval:    cfg.Interval(),
	}, client, strat, sizer, engine, observers, log)

	logStart(log, cfg, mode, strat.Name())
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("scheduler stopped")
	}
	log.Info().Msg("shutting down")
	cancel()
	listeners.Wait()
}

func logStart(log zerolog.Logger, cfg *config.Config, mode execution.Mode, strategyName string) {
	log.Info().
		Str("symbol", cfg.Exchange.Symbol).
		Str("category", cfg.Exchange.Category).
		Str("timeframe", cfg.Exchange.Timeframe).
		Str("mode", string(mode)).
		Str("strategy", strategyName).
		Float64("notional", cfg.Risk.OrderNotional).
		Float64("leverage", cfg.Risk.Leverage).
		Int("max_open_positions", cfg.Risk.MaxOpenPositions).
		Int("web_port", cfg.Web.Port).
		Msg("bot started")
}
