package liquidation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clearance/internal/exchange"
)

// orderGateway 列出订单生命周期用到的网关能力。
type orderGateway interface {
	CreateLimitSell(ctx context.Context, symbol string, amount, price float64) (exchange.Order, error)
	FetchOrder(ctx context.Context, id, symbol string) (exchange.Order, error)
	FetchOrdersSince(ctx context.Context, symbol string, since int64) ([]exchange.Order, error)
	CancelOrder(ctx context.Context, id, symbol string) error
}

// Budget 为各网络操作的重试预算。
type Budget struct {
	Create int
	Cancel int
	Fetch  int
}

// Options 控制单笔清仓的节奏。
type Options struct {
	// Dwell 为挂单后的固定等待时间。
	Dwell time.Duration
	// CancelRetryInterval 为撤单超时后的固定重试间隔。
	CancelRetryInterval time.Duration
	Budget              Budget
}

func (o *Options) applyDefaults() {
	if o.Dwell <= 0 {
		o.Dwell = 10 * time.Second
	}
	if o.CancelRetryInterval <= 0 {
		o.CancelRetryInterval = 500 * time.Millisecond
	}
	if o.Budget.Create <= 0 {
		o.Budget.Create = 2
	}
	if o.Budget.Cancel <= 0 {
		o.Budget.Cancel = 2
	}
	if o.Budget.Fetch <= 0 {
		o.Budget.Fetch = 2
	}
}

// Lifecycle 驱动单个交易对的阶梯抛售：挂单、等待、撤单、核对剩余，
// 价格从阶梯最高档开始逐级下探，直到抛完或阶梯耗尽。
type Lifecycle struct {
	gateway orderGateway
	opts    Options
	logger  *zap.Logger
}

// NewLifecycle 创建清仓状态机。
func NewLifecycle(gateway orderGateway, opts Options, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.applyDefaults()
	return &Lifecycle{
		gateway: gateway,
		opts:    opts,
		logger:  logger,
	}
}

// Run 把任务执行到终态，返回最终未抛出的数量。
// 返回 0 表示全部抛出；大于 0 且无错误表示阶梯耗尽后仍有剩余。
func (l *Lifecycle) Run(ctx context.Context, task Task) (float64, error) {
	amount := task.Amount
	ladder := append([]float64(nil), task.Ladder...)

	step := 0
	for len(ladder) > 0 && amount > 0 {
		price := ladder[len(ladder)-1]
		ladder = ladder[:len(ladder)-1]
		step++

		l.logger.Info("阶梯试探开始",
			zap.String("symbol", task.Symbol),
			zap.Int("step", step),
			zap.Float64("price", price),
			zap.Float64("amount", amount),
		)

		orderID, err := l.submit(ctx, task.Symbol, amount, price)
		if err != nil {
			return amount, err
		}

		if err := l.dwell(ctx); err != nil {
			return amount, err
		}

		if err := l.cancel(ctx, orderID, task.Symbol); err != nil {
			return amount, err
		}

		remaining, err := l.remaining(ctx, orderID, task.Symbol)
		if err != nil {
			return amount, err
		}
		amount = remaining
	}

	return amount, nil
}

// submit 挂出限价卖单并返回订单ID。
// 请求超时时不盲目重发：先查该交易对自请求发起以来的订单历史，
// 找到匹配订单则直接采用其ID，找不到才消耗一次重试。
func (l *Lifecycle) submit(ctx context.Context, symbol string, amount, price float64) (string, error) {
	for attempt := 1; attempt <= l.opts.Budget.Create; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		since := time.Now().UnixMilli()
		order, err := l.gateway.CreateLimitSell(ctx, symbol, amount, price)
		if err == nil {
			return order.ID, nil
		}

		if exchange.IsTimeout(err) {
			orders, histErr := l.gateway.FetchOrdersSince(ctx, symbol, since)
			if histErr == nil && len(orders) > 0 {
				adopted := orders[len(orders)-1]
				l.logger.Warn("挂单超时，采用订单历史中的已有订单",
					zap.String("symbol", symbol),
					zap.String("order_id", adopted.ID),
				)
				return adopted.ID, nil
			}
			l.logger.Warn("挂单超时且历史中无匹配订单，准备重试",
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
			)
			continue
		}

		return "", fmt.Errorf("%w: %s 价格 %v: %v", ErrCreateOrder, symbol, price, err)
	}

	return "", fmt.Errorf("%w: %s 价格 %v 重试 %d 次后仍失败", ErrCreateOrder, symbol, price, l.opts.Budget.Create)
}

func (l *Lifecycle) dwell(ctx context.Context) error {
	timer := time.NewTimer(l.opts.Dwell)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cancel 撤销订单。订单已不存在视为撤销成功。
func (l *Lifecycle) cancel(ctx context.Context, orderID, symbol string) error {
	for attempt := 1; attempt <= l.opts.Budget.Cancel; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := l.gateway.CancelOrder(ctx, orderID, symbol)
		if err == nil {
			return nil
		}

		if exchange.IsOrderNotFound(err) {
			l.logger.Debug("订单已不存在，视为撤销成功",
				zap.String("symbol", symbol),
				zap.String("order_id", orderID),
			)
			return nil
		}

		if exchange.IsTimeout(err) {
			l.logger.Warn("撤单超时，等待重试",
				zap.String("order_id", orderID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", l.opts.CancelRetryInterval),
			)
			timer := time.NewTimer(l.opts.CancelRetryInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		return fmt.Errorf("%w: order=%s: %v", ErrCancelOrder, orderID, err)
	}

	return fmt.Errorf("%w: order=%s 重试 %d 次后仍失败", ErrCancelOrder, orderID, l.opts.Budget.Cancel)
}

// remaining 查询订单的未成交数量，任何失败均计入重试预算且不等待。
func (l *Lifecycle) remaining(ctx context.Context, orderID, symbol string) (float64, error) {
	var lastErr error
	for attempt := 1; attempt <= l.opts.Budget.Fetch; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		order, err := l.gateway.FetchOrder(ctx, orderID, symbol)
		if err == nil {
			l.logger.Info("订单剩余数量",
				zap.String("symbol", symbol),
				zap.String("order_id", orderID),
				zap.Float64("remaining", order.Remaining),
			)
			return order.Remaining, nil
		}

		lastErr = err
		l.logger.Warn("查询订单失败，准备重试",
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return 0, fmt.Errorf("%w: order=%s: %v", ErrFetchOrder, orderID, lastErr)
}
