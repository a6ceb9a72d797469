package exchange

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

const pathKline = "/v5/market/kline"

type klineResult struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

// FetchCandles returns up to limit recent candles sorted by start time ascending.
// Rows repeating a start time are collapsed, keeping the last one received.
func (c *Client) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]signal.Candle, error) {
	query := url.Values{}
	query.Set("category", c.category)
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(limit))

	var res klineResult
	if err := c.publicGet(ctx, "kline", pathKline, query, &res); err != nil {
		return nil, err
	}

	candles := make([]signal.Candle, 0, len(res.List))
	index := make(map[int64]int, len(res.List))
	for i, row := range res.List {
		candle, startMs, err := parseKlineRow(row)
		if err != nil {
			return nil, &ProtocolError{Op: "kline", Code: codeMalformed, Message: fmt.Sprintf("row %d: %v", i, err)}
		}
		if at, dup := index[startMs]; dup {
			candles[at] = candle
			continue
		}
		index[startMs] = len(candles)
		candles = append(candles, candle)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Start.Before(candles[j].Start) })
	return candles, nil
}

// parseKlineRow decodes [start, open, high, low, close, volume, turnover...].
func parseKlineRow(row []string) (signal.Candle, int64, error) {
	if len(row) < 6 {
		return signal.Candle{}, 0, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	startMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return signal.Candle{}, 0, fmt.Errorf("start: %w", err)
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return signal.Candle{}, 0, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return signal.Candle{
		Start:  time.UnixMilli(startMs),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, startMs, nil
}
