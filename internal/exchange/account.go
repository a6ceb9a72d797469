package exchange

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

const (
	pathOrderCreate    = "/v5/order/create"
	pathOrderCancelAll = "/v5/order/cancel-all"
	pathPositionList   = "/v5/position/list"
	pathSetLeverage    = "/v5/position/set-leverage"

	orderTypeMarket = "Market"
	timeInForceIOC  = "IOC"
)

// OrderIntent is a market order request handed from the execution engine to the client.
type OrderIntent struct {
	Symbol string
	Side   signal.Side
	Qty    float64
}

// Field order matters: the marshaled bytes are what gets signed.
type createOrderRequest struct {
	Category    string      `json:"category"`
	Symbol      string      `json:"symbol"`
	Side        signal.Side `json:"side"`
	OrderType   string      `json:"orderType"`
	Qty         string      `json:"qty"`
	TimeInForce string      `json:"timeInForce"`
}

type createOrderResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

// PlaceOrder submits an immediate-or-cancel market order and returns the exchange order id.
func (c *Client) PlaceOrder(ctx context.Context, intent OrderIntent) (string, error) {
	body := createOrderRequest{
		Category:    c.category,
		Symbol:      intent.Symbol,
		Side:        intent.Side,
		OrderType:   orderTypeMarket,
		Qty:         FormatQty(intent.Qty),
		TimeInForce: timeInForceIOC,
	}
	var res createOrderResult
	if err := c.privatePost(ctx, "order.create", pathOrderCreate, body, &res); err != nil {
		return "", err
	}
	return res.OrderID, nil
}

type symbolRequest struct {
	Category string `json:"category"`
	Symbol   string `json:"symbol"`
}

// CancelAllOrders cancels every working order for symbol. It does not reduce an open position.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	return c.privatePost(ctx, "order.cancel-all", pathOrderCancelAll, symbolRequest{Category: c.category, Symbol: symbol}, nil)
}

// Position is one row of the exchange's position list.
type Position struct {
	Symbol        string
	Side          string
	Size          float64
	AvgPrice      float64
	MarkPrice     float64
	Leverage      float64
	PositionValue float64
	UnrealisedPnL float64
}

type positionRow struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	AvgPrice      string `json:"avgPrice"`
	MarkPrice     string `json:"markPrice"`
	Leverage      string `json:"leverage"`
	PositionValue string `json:"positionValue"`
	UnrealisedPnl string `json:"unrealisedPnl"`
}

type positionListResult struct {
	Category string        `json:"category"`
	List     []positionRow `json:"list"`
}

// GetPositions lists the account's positions for symbol.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]Position, error) {
	query := url.Values{}
	query.Set("category", c.category)
	query.Set("symbol", symbol)

	var res positionListResult
	if err := c.privateGet(ctx, "position.list", pathPositionList, query, &res); err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(res.List))
	for _, row := range res.List {
		out = append(out, Position{
			Symbol:        row.Symbol,
			Side:          row.Side,
			Size:          parseNumber(row.Size),
			AvgPrice:      parseNumber(row.AvgPrice),
			MarkPrice:     parseNumber(row.MarkPrice),
			Leverage:      parseNumber(row.Leverage),
			PositionValue: parseNumber(row.PositionValue),
			UnrealisedPnL: parseNumber(row.UnrealisedPnl),
		})
	}
	return out, nil
}

type setLeverageRequest struct {
	Category     string `json:"category"`
	Symbol       string `json:"symbol"`
	BuyLeverage  string `json:"buyLeverage"`
	SellLeverage string `json:"sellLeverage"`
}

// SetLeverage updates the buy and sell leverage for symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, buyLeverage, sellLeverage float64) error {
	body := setLeverageRequest{
		Category:     c.category,
		Symbol:       symbol,
		BuyLeverage:  strconv.FormatFloat(buyLeverage, 'f', -1, 64),
		SellLeverage: strconv.FormatFloat(sellLeverage, 'f', -1, 64),
	}
	return c.privatePost(ctx, "position.set-leverage", pathSetLeverage, body, nil)
}

// FormatQty renders a quantity in its shortest decimal form, e.g. 0.001 -> "0.001".
func FormatQty(qty float64) string {
	return decimal.NewFromFloat(qty).String()
}

// parseNumber treats empty or unparsable numeric strings as zero; Bybit sends "" for flat positions.
func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
