package pathway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clearance/internal/exchange"
)

// Direction 表示换币时执行的交易方向。
type Direction string

const (
	DirectionSell Direction = "sell"
	DirectionBuy  Direction = "buy"
)

type bookSource interface {
	FetchOrderBook(ctx context.Context, symbol string, depth int64) (exchange.OrderBookSnapshot, error)
}

// Oracle 从盘口读取指定方向的最优价。本层不做重试，失败直接上抛。
type Oracle struct {
	source bookSource
	depth  int64
	logger *zap.Logger
}

// NewOracle 创建价格查询器。
func NewOracle(source bookSource, depth int64, logger *zap.Logger) *Oracle {
	if depth <= 0 {
		depth = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		source: source,
		depth:  depth,
		logger: logger,
	}
}

// BestPrice 返回盘口顶档价格：sell 方向读最优卖价，buy 方向读最优买价。
func (o *Oracle) BestPrice(ctx context.Context, symbol string, direction Direction) (float64, error) {
	book, err := o.source.FetchOrderBook(ctx, symbol, o.depth)
	if err != nil {
		return 0, fmt.Errorf("获取 %s 盘口失败: %w", symbol, err)
	}

	var levels []exchange.OrderBookLevel
	switch direction {
	case DirectionSell:
		levels = book.Asks
	case DirectionBuy:
		levels = book.Bids
	default:
		return 0, fmt.Errorf("未知交易方向 %q", direction)
	}

	if len(levels) == 0 {
		return 0, fmt.Errorf("%s 盘口 %s 侧为空", symbol, direction)
	}

	price := levels[0].Price
	o.logger.Debug("盘口最优价",
		zap.String("symbol", symbol),
		zap.String("direction", string(direction)),
		zap.Float64("price", price),
	)
	return price, nil
}
