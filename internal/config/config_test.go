package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "intradaybot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.App.LogLevel)
	}
	if cfg.App.LogFile != "logs/app.log" {
		t.Fatalf("expected default log file, got %s", cfg.App.LogFile)
	}
	if cfg.Exchange.BaseURL != "https://api-testnet.bybit.com" {
		t.Fatalf("unexpected base url: %s", cfg.Exchange.BaseURL)
	}
	if cfg.Exchange.Symbol != "ETHUSDT" || cfg.Exchange.Timeframe != "5" {
		t.Fatalf("unexpected market: %s %s", cfg.Exchange.Symbol, cfg.Exchange.Timeframe)
	}
	if cfg.Exchange.Category != "linear" {
		t.Fatalf("expected default category, got %s", cfg.Exchange.Category)
	}
	if cfg.Strategy.Params.ShortPeriod != 10 || cfg.Strategy.Params.LongPeriod != 30 {
		t.Fatalf("unexpected periods: %+v", cfg.Strategy.Params)
	}
	if cfg.Strategy.Mode != "sma_cross" {
		t.Fatalf("expected default strategy mode, got %s", cfg.Strategy.Mode)
	}
	if cfg.Risk.OrderNotional != 25 || cfg.Risk.Leverage != 3 {
		t.Fatalf("unexpected risk: %+v", cfg.Risk)
	}
	if cfg.Risk.RiskPerTrade != 0.01 {
		t.Fatalf("expected default risk per trade, got %.2f", cfg.Risk.RiskPerTrade)
	}
	if !cfg.Paper.Enabled {
		t.Fatalf("expected paper enabled by default")
	}
	if cfg.Scheduler.IntervalMs != 5000 || cfg.Scheduler.CandleLimit != 200 {
		t.Fatalf("unexpected scheduler: %+v", cfg.Scheduler)
	}
	if cfg.Journal.Driver != "sqlite" || cfg.Journal.Path != "trades.db" {
		t.Fatalf("unexpected journal: %+v", cfg.Journal)
	}
	if cfg.Web.Port != 3006 {
		t.Fatalf("expected default web port, got %d", cfg.Web.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Exchange.Symbol != "BTCUSDT" || cfg.Risk.OrderNotional != 50 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Exchange.Symbol = "SOLUSDT"
	cfg.Paper.Enabled = false
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Exchange.Symbol != "SOLUSDT" || loaded.Paper.Enabled {
		t.Fatalf("unexpected reload: %+v", loaded.Exchange)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"BYBIT_API_KEY":    "key",
		"BYBIT_API_SECRET": "secret",
		"SYMBOL":           "ETHUSDT",
		"TRADING_MODE":     "inverse",
		"LEVERAGE":         "5",
		"ORDER_NOTIONAL":   "120.5",
		"PAPER":            "false",
		"WEB_PORT":         "8080",
		"TG_CHAT_ID":       "-100123",
	}
	cfg := Default()
	err := cfg.applyLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("applyLookup: %v", err)
	}
	if !cfg.HasCredentials() {
		t.Fatalf("expected credentials")
	}
	if cfg.Exchange.Symbol != "ETHUSDT" || cfg.Exchange.Category != "inverse" {
		t.Fatalf("unexpected exchange: %+v", cfg.Exchange)
	}
	if cfg.Risk.Leverage != 5 || cfg.Risk.OrderNotional != 120.5 {
		t.Fatalf("unexpected risk: %+v", cfg.Risk)
	}
	if cfg.Paper.Enabled {
		t.Fatalf("expected paper disabled")
	}
	if cfg.Web.Port != 8080 || cfg.Notify.TelegramChatID != -100123 {
		t.Fatalf("unexpected web/notify: %d %d", cfg.Web.Port, cfg.Notify.TelegramChatID)
	}
}

func TestApplyEnvPaperOnlyTrueIsTrue(t *testing.T) {
	cfg := Default()
	_ = cfg.applyLookup(func(k string) (string, bool) {
		if k == "PAPER" {
			return "yes", true
		}
		return "", false
	})
	if cfg.Paper.Enabled {
		t.Fatalf("only the literal true enables paper mode")
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.applyLookup(func(k string) (string, bool) {
		if k == "LEVERAGE" {
			return "two", true
		}
		return "", false
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"category":      func(c *Config) { c.Exchange.Category = "futures" },
		"notional":      func(c *Config) { c.Risk.OrderNotional = 0 },
		"leverage":      func(c *Config) { c.Risk.Leverage = -1 },
		"periods":       func(c *Config) { c.Strategy.Params.LongPeriod = 20 },
		"candle limit":  func(c *Config) { c.Scheduler.CandleLimit = 51 },
		"journal":       func(c *Config) { c.Journal.Driver = "postgres" },
		"journal path":  func(c *Config) { c.Journal.Driver = "jsonl" },
		"https no cert": func(c *Config) { c.Web.HTTPSEnabled = true },
		"symbol":        func(c *Config) { c.Exchange.Symbol = "" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}
