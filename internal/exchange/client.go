// Package exchange implements the authenticated Bybit v5 REST client used for market data and order routing.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is Bybit's production REST endpoint.
	DefaultBaseURL = "https://api.bybit.com"
	// DefaultCategory is the USDT perpetual market.
	DefaultCategory = "linear"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client talks to the Bybit v5 REST API. Private calls are signed with the configured credentials.
type Client struct {
	baseURL  string
	category string
	signer   *Signer
	http     *http.Client
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithBaseURL overrides the REST endpoint, e.g. the testnet.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithCategory selects the market category (linear, inverse, option, spot).
func WithCategory(category string) Option {
	return func(c *Client) {
		if category != "" {
			c.category = category
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock injects the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for rejected responses.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client; empty credentials still allow public market data calls.
func NewClient(apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		category: DefaultCategory,
		signer:   NewSigner(apiKey, apiSecret),
		http:     &http.Client{Timeout: defaultTimeout},
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close wipes the signing secret.
func (c *Client) Close() { c.signer.Wipe() }

type envelope struct {
	RetCode *int            `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

func (c *Client) publicGet(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query.Encode(), nil, false, out)
}

func (c *Client) privateGet(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query.Encode(), nil, true, out)
}

func (c *Client) privatePost(ctx context.Context, op, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
	}
	return c.do(ctx, op, http.MethodPost, path, "", payload, true, out)
}

func (c *Client) do(ctx context.Context, op, method, path, rawQuery string, body []byte, signed bool, out any) error {
	endpoint := c.baseURL + path
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
		payload := rawQuery
		if body != nil {
			payload = string(body)
		}
		c.signer.Apply(req.Header, timestamp, payload)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		return &ProtocolError{Op: op, Code: codeMalformed, Message: fmt.Sprintf("malformed envelope: %v", err)}
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if env.RetCode == nil {
		if !ok {
			return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		return &ProtocolError{Op: op, Code: codeMalformed, Message: "missing retCode"}
	}
	if code := *env.RetCode; code != 0 {
		c.log.Error().
			Str("op", op).
			Int("http_status", resp.StatusCode).
			Int("ret_code", code).
			Str("ret_msg", env.RetMsg).
			Msg("bybit rejected request")
		return &ProtocolError{Op: op, Code: code, Message: env.RetMsg}
	}
	if !ok {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &ProtocolError{Op: op, Code: codeMalformed, Message: "missing result"}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &ProtocolError{Op: op, Code: codeMalformed, Message: fmt.Sprintf("decode result: %v", err)}
	}
	return nil
}
