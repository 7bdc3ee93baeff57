package exchange

import (
	"context"
	"fmt"
	"sort"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"
)

// marketClient 列出本包用到的 ccxt 方法，所有具体交易所类型均满足该接口。
type marketClient interface {
	LoadMarkets(params ...interface{}) (map[string]ccxt.MarketInterface, error)
	FetchBalance(params ...interface{}) (ccxt.Balances, error)
	FetchOrderBook(symbol string, options ...ccxt.FetchOrderBookOptions) (ccxt.OrderBook, error)
	CreateLimitOrder(symbol string, side string, amount float64, price float64, options ...ccxt.CreateLimitOrderOptions) (ccxt.Order, error)
	FetchOrder(id string, options ...ccxt.FetchOrderOptions) (ccxt.Order, error)
	FetchOrders(options ...ccxt.FetchOrdersOptions) ([]ccxt.Order, error)
	CancelOrder(id string, options ...ccxt.CancelOrderOptions) (ccxt.Order, error)
}

// Client 基于 ccxt 实现 Gateway。
type Client struct {
	name     string
	exchange marketClient
	logger   *zap.Logger
}

// NewClient 用给定的 ccxt 交易所实例构造 Client。
func NewClient(name string, exchange marketClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		name:     name,
		exchange: exchange,
		logger:   logger,
	}
}

// Name 返回交易所标识。
func (c *Client) Name() string {
	return c.name
}

// LoadMarkets 加载市场元数据并返回全部挂牌交易对。
func (c *Client) LoadMarkets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markets, err := c.exchange.LoadMarkets()
	if err != nil {
		return nil, Classify(err)
	}

	symbols := make([]string, 0, len(markets))
	for symbol := range markets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	c.logger.Debug("市场元数据加载完成",
		zap.String("exchange", c.name),
		zap.Int("symbols", len(symbols)),
	)
	return symbols, nil
}

// FetchFreeBalance 返回各币种可用余额。
func (c *Client) FetchFreeBalance(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	balances, err := c.exchange.FetchBalance()
	if err != nil {
		return nil, Classify(err)
	}

	free := make(map[string]float64, len(balances.Free))
	for code, amount := range balances.Free {
		if amount == nil {
			continue
		}
		free[code] = *amount
	}
	return free, nil
}

// FetchOrderBook 获取限定深度的订单簿快照。
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, depth int64) (OrderBookSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return OrderBookSnapshot{}, err
	}
	if depth <= 0 {
		depth = 5
	}

	book, err := c.exchange.FetchOrderBook(symbol, ccxt.WithFetchOrderBookLimit(depth))
	if err != nil {
		return OrderBookSnapshot{}, Classify(err)
	}

	return convertOrderBook(symbol, book), nil
}

// CreateLimitSell 挂出限价卖单。
func (c *Client) CreateLimitSell(ctx context.Context, symbol string, amount, price float64) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	order, err := c.exchange.CreateLimitOrder(symbol, "sell", amount, price)
	if err != nil {
		return Order{}, Classify(err)
	}

	converted := convertOrder(order)
	if converted.ID == "" {
		return Order{}, fmt.Errorf("%w: 交易所未返回订单ID", ErrExchange)
	}
	return converted, nil
}

// FetchOrder 查询订单。
func (c *Client) FetchOrder(ctx context.Context, id, symbol string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	order, err := c.exchange.FetchOrder(id, ccxt.WithFetchOrderSymbol(symbol))
	if err != nil {
		return Order{}, Classify(err)
	}
	return convertOrder(order), nil
}

// FetchOrdersSince 查询指定时间之后该交易对的订单历史。
func (c *Client) FetchOrdersSince(ctx context.Context, symbol string, since int64) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.exchange.FetchOrders(
		ccxt.WithFetchOrdersSymbol(symbol),
		ccxt.WithFetchOrdersSince(since),
	)
	if err != nil {
		return nil, Classify(err)
	}

	orders := make([]Order, 0, len(raw))
	for _, item := range raw {
		orders = append(orders, convertOrder(item))
	}
	return orders, nil
}

// CancelOrder 撤销订单。
func (c *Client) CancelOrder(ctx context.Context, id, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.exchange.CancelOrder(id, ccxt.WithCancelOrderSymbol(symbol)); err != nil {
		return Classify(err)
	}
	return nil
}

func convertOrder(order ccxt.Order) Order {
	var ts time.Time
	if order.Timestamp != nil {
		ts = time.UnixMilli(*order.Timestamp).UTC()
	}
	return Order{
		ID:        derefString(order.Id),
		Symbol:    derefString(order.Symbol),
		Status:    derefString(order.Status),
		Remaining: derefFloat(order.Remaining),
		Timestamp: ts,
	}
}

func convertOrderBook(symbol string, ob ccxt.OrderBook) OrderBookSnapshot {
	bids := make([]OrderBookLevel, 0, len(ob.Bids))
	for _, level := range ob.Bids {
		if len(level) < 2 {
			continue
		}
		bids = append(bids, OrderBookLevel{
			Price:  level[0],
			Amount: level[1],
		})
	}

	asks := make([]OrderBookLevel, 0, len(ob.Asks))
	for _, level := range ob.Asks {
		if len(level) < 2 {
			continue
		}
		asks = append(asks, OrderBookLevel{
			Price:  level[0],
			Amount: level[1],
		})
	}

	var ts time.Time
	if ob.Timestamp != nil {
		ts = time.UnixMilli(*ob.Timestamp).UTC()
	} else {
		ts = time.Now().UTC()
	}

	return OrderBookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: ts,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
