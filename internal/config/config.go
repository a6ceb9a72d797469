// Package config exposes strongly typed application configuration structs loaded from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the bot looks for its YAML file when no -config flag is given.
const DefaultPath = "internal/config/config.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// Exchange describes Bybit connectivity and the single traded instrument.
type Exchange struct {
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Category  string `yaml:"category" validate:"oneof=linear inverse option spot"`
	Symbol    string `yaml:"symbol" validate:"required"`
	Timeframe string `yaml:"timeframe" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" validate:"gt=0"`
}

// StrategyParams groups the moving-average windows.
type StrategyParams struct {
	ShortPeriod int `yaml:"short_period" validate:"gt=0"`
	LongPeriod  int `yaml:"long_period" validate:"gtfield=ShortPeriod"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Risk encodes order sizing. RiskPerTrade is accepted for compatibility and not used by the sizer.
type Risk struct {
	OrderNotional    float64 `yaml:"order_notional" validate:"gt=0"`
	RiskPerTrade     float64 `yaml:"risk_per_trade" validate:"gte=0"`
	Leverage         float64 `yaml:"leverage" validate:"gt=0"`
	MaxOpenPositions int     `yaml:"max_open_positions" validate:"gte=0"`
}

// Paper toggles simulated execution.
type Paper struct {
	Enabled bool `yaml:"enabled"`
}

// Scheduler sets the polling cadence and history depth.
type Scheduler struct {
	IntervalMs  int `yaml:"interval_ms" validate:"gt=0"`
	CandleLimit int `yaml:"candle_limit" validate:"gt=0,lte=1000"`
}

// Web configures the dashboard listener.
type Web struct {
	Port         int    `yaml:"port" validate:"gte=0,lt=65536"`
	HTTPSEnabled bool   `yaml:"https_enabled"`
	KeyPath      string `yaml:"key_path" validate:"required_if=HTTPSEnabled true"`
	CertPath     string `yaml:"cert_path" validate:"required_if=HTTPSEnabled true"`
}

// Journal selects the durable trade journal.
type Journal struct {
	Driver string `yaml:"driver" validate:"oneof=none jsonl sqlite"`
	Path   string `yaml:"path" validate:"required_unless=Driver none"`
}

// Notify holds optional Telegram credentials.
type Notify struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Exchange  Exchange  `yaml:"exchange"`
	Strategy  Strategy  `yaml:"strategy"`
	Risk      Risk      `yaml:"risk"`
	Paper     Paper     `yaml:"paper"`
	Scheduler Scheduler `yaml:"scheduler"`
	Web       Web       `yaml:"web"`
	Journal   Journal   `yaml:"journal"`
	Notify    Notify    `yaml:"notify"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default() *Config {
	return &Config{
		App: App{
			Name:     "intradaybot",
			Env:      "dev",
			LogLevel: "info",
			LogFile:  "logs/app.log",
		},
		Exchange: Exchange{
			BaseURL:   "https://api.bybit.com",
			Category:  "linear",
			Symbol:    "BTCUSDT",
			Timeframe: "1",
			TimeoutMs: 15000,
		},
		Strategy: Strategy{
			Mode:   "sma_cross",
			Params: StrategyParams{ShortPeriod: 20, LongPeriod: 50},
		},
		Risk: Risk{
			OrderNotional:    50,
			RiskPerTrade:     0.01,
			Leverage:         2,
			MaxOpenPositions: 1,
		},
		Paper:     Paper{Enabled: true},
		Scheduler: Scheduler{IntervalMs: 15000, CandleLimit: 200},
		Web:       Web{Port: 3006},
		Journal:   Journal{Driver: "none"},
	}
}

// Load reads a YAML file from disk on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv loads .env best-effort and lets the process environment override file values.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()
	return c.applyLookup(os.LookupEnv)
}

func (c *Config) applyLookup(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	// Booleans follow the "true" means true convention; anything else is false.
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}

	str("BYBIT_API_KEY", &c.Exchange.APIKey)
	str("BYBIT_API_SECRET", &c.Exchange.APISecret)
	str("BYBIT_BASE_URL", &c.Exchange.BaseURL)
	str("SYMBOL", &c.Exchange.Symbol)
	str("TRADING_MODE", &c.Exchange.Category)
	str("TIMEFRAME", &c.Exchange.Timeframe)
	num("LEVERAGE", &c.Risk.Leverage)
	num("RISK_PER_TRADE", &c.Risk.RiskPerTrade)
	num("ORDER_NOTIONAL", &c.Risk.OrderNotional)
	integer("MAX_OPEN_POSITIONS", &c.Risk.MaxOpenPositions)
	flag("PAPER", &c.Paper.Enabled)
	str("LOG_LEVEL", &c.App.LogLevel)
	str("LOG_FILE", &c.App.LogFile)
	str("METRICS_ADDR", &c.App.MetricsAddr)
	integer("WEB_PORT", &c.Web.Port)
	flag("HTTPS_ENABLED", &c.Web.HTTPSEnabled)
	str("HTTPS_KEY_PATH", &c.Web.KeyPath)
	str("HTTPS_CERT_PATH", &c.Web.CertPath)
	str("TG_TOKEN", &c.Notify.TelegramToken)
	if v, ok := lookup("TG_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TG_CHAT_ID: %w", err))
		} else {
			c.Notify.TelegramChatID = id
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Validate checks field constraints and the cross-field rules the tag language cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	// SMACross needs long+2 closes.
	if c.Scheduler.CandleLimit <= c.Strategy.Params.LongPeriod+1 {
		return fmt.Errorf("%w: scheduler.candle_limit %d must exceed strategy long_period+1 (%d)",
			ErrInvalid, c.Scheduler.CandleLimit, c.Strategy.Params.LongPeriod+1)
	}
	return nil
}

// HasCredentials reports whether both API key and secret are present.
func (c *Config) HasCredentials() bool {
	return c.Exchange.APIKey != "" && c.Exchange.APISecret != ""
}

// Interval is the scheduler cadence as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMs) * time.Millisecond
}

// Timeout is the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Exchange.TimeoutMs) * time.Millisecond
}
