// Package notify sends trade notifications to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

// DefaultQueueSize bounds pending notifications.
const DefaultQueueSize = 32

// Telegram is a telemetry observer that posts every trade to one chat from a background worker.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	queue  chan string
	log    zerolog.Logger
}

type options struct {
	endpoint  string
	client    *http.Client
	queueSize int
}

// Option configures the notifier.
type Option func(*options)

// WithEndpoint overrides the Bot API endpoint format, e.g. for a local proxy.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client used for Bot API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithQueueSize sets how many messages may wait for delivery.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// NewTelegram authenticates the bot token and returns a notifier for chatID.
func NewTelegram(token string, chatID int64, log zerolog.Logger, opts ...Option) (*Telegram, error) {
	o := options{endpoint: tgbotapi.APIEndpoint, client: &http.Client{}, queueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.queueSize <= 0 {
		o.queueSize = DefaultQueueSize
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("@", bot.Self.UserName).Msg("Telegram connected")
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, o.queueSize),
		log:    log,
	}, nil
}

// Run delivers queued messages until ctx is canceled.
func (t *Telegram) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-t.queue:
			if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
				t.log.Error().Err(err).Msg("send tg msg")
			}
		}
	}
}

// OnLog is ignored; only trades are forwarded.
func (t *Telegram) OnLog(string, string, map[string]any) {}

// OnTrade queues a notification, dropping it when the queue is full.
func (t *Telegram) OnTrade(rec signal.TradeRecord) {
	select {
	case t.queue <- FormatTrade(rec):
	default:
		t.log.Warn().Str("trade_id", rec.ID).Msg("telegram queue full, dropping notification")
	}
}

// FormatTrade renders the chat message for a trade.
func FormatTrade(rec signal.TradeRecord) string {
	return fmt.Sprintf("%s %s\nqty: %s\nprice: %s\ntime: %s",
		rec.Side, rec.Symbol,
		trimFloat(rec.Qty), trimFloat(rec.Price),
		rec.Time.UTC().Format("2006-01-02 15:04:05 UTC"))
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
