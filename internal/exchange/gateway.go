package exchange

import (
	"context"
	"time"
)

// Order 为交易所返回的订单视图。
type Order struct {
	ID        string
	Symbol    string
	Status    string
	Remaining float64
	Timestamp time.Time
}

// OrderBookLevel 表示盘口档位。
type OrderBookLevel struct {
	Price  float64
	Amount float64
}

// OrderBookSnapshot 为订单簿快照。
type OrderBookSnapshot struct {
	Symbol    string
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	Timestamp time.Time
}

// Gateway 抽象交易所能力，所有网络操作都经由该接口。
type Gateway interface {
	// LoadMarkets 返回交易所当前挂牌的全部交易对。
	LoadMarkets(ctx context.Context) ([]string, error)
	// FetchFreeBalance 返回各币种的可用余额。
	FetchFreeBalance(ctx context.Context) (map[string]float64, error)
	// FetchOrderBook 获取限定深度的订单簿快照。
	FetchOrderBook(ctx context.Context, symbol string, depth int64) (OrderBookSnapshot, error)
	// CreateLimitSell 以给定价格挂出限价卖单。
	CreateLimitSell(ctx context.Context, symbol string, amount, price float64) (Order, error)
	// FetchOrder 查询单个订单的状态与未成交数量。
	FetchOrder(ctx context.Context, id, symbol string) (Order, error)
	// FetchOrdersSince 查询指定时间之后该交易对的订单历史。
	FetchOrdersSince(ctx context.Context, symbol string, since int64) ([]Order, error)
	// CancelOrder 撤销订单。
	CancelOrder(ctx context.Context, id, symbol string) error
}
