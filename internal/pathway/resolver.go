package pathway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clearance/internal/market"
)

// DirectKey 为存在直接市场时结果映射里的唯一键。
const DirectKey = "direct"

type marketLister interface {
	LoadMarkets(ctx context.Context) ([]string, error)
}

type priceSource interface {
	BestPrice(ctx context.Context, symbol string, direction Direction) (float64, error)
}

// Resolver 在无直接市场时，经由中间币种搜索两跳换算路径的隐含价格。
//
// 路径标签约定：每一跳以持有方执行的交易方向命名。
// 第一跳，middle ∈ SellTo(base) 时记 sell（市场 base/middle，卖出 base）；
// middle ∈ BuyWith(base) 时记 buy（市场 middle/base，用 base 买入 middle）。
// 第二跳，middle ∈ BuyWith(target) 时记 sell（市场 middle/target，卖出 middle）；
// middle ∈ SellTo(target) 时记 buy（市场 target/middle，用 middle 买入 target）。
// 结果键为 "<leg1>_<middle>_<leg2>"，值为两跳顶档价的乘积。
type Resolver struct {
	lister marketLister
	oracle priceSource
	logger *zap.Logger
}

// NewResolver 创建路径解析器。
func NewResolver(lister marketLister, oracle priceSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		lister: lister,
		oracle: oracle,
		logger: logger,
	}
}

type leg struct {
	direction Direction
	// symbol 给出该跳挂牌的交易对形式。
	symbol func(middle string) string
	// candidates 给出该跳可用的中间币种集合。
	candidates map[string]bool
}

// Resolve 返回 base 到 target 的换算价格映射。
// 存在直接市场时只含 DirectKey 一项；否则为全部两跳路径的隐含价格，
// 无路径时为空映射。
func (r *Resolver) Resolve(ctx context.Context, base, target string) (map[string]float64, error) {
	symbols, err := r.lister.LoadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载市场列表失败: %w", err)
	}
	graph := market.BuildGraph(symbols)

	direct := market.Join(base, target)
	if graph.Listed(direct) {
		price, err := r.oracle.BestPrice(ctx, direct, DirectionSell)
		if err != nil {
			return nil, err
		}
		return map[string]float64{DirectKey: price}, nil
	}

	reversed := market.Join(target, base)
	if graph.Listed(reversed) {
		price, err := r.oracle.BestPrice(ctx, reversed, DirectionBuy)
		if err != nil {
			return nil, err
		}
		return map[string]float64{DirectKey: price}, nil
	}

	baseRel := graph.Relations(base)
	targetRel := graph.Relations(target)

	firstLegs := []leg{
		{
			direction:  DirectionSell,
			symbol:     func(middle string) string { return market.Join(base, middle) },
			candidates: baseRel.SellTo,
		},
		{
			direction:  DirectionBuy,
			symbol:     func(middle string) string { return market.Join(middle, base) },
			candidates: baseRel.BuyWith,
		},
	}
	secondLegs := []leg{
		{
			direction:  DirectionSell,
			symbol:     func(middle string) string { return market.Join(middle, target) },
			candidates: targetRel.BuyWith,
		},
		{
			direction:  DirectionBuy,
			symbol:     func(middle string) string { return market.Join(target, middle) },
			candidates: targetRel.SellTo,
		},
	}

	prices := make(map[string]float64)
	for _, first := range firstLegs {
		for _, second := range secondLegs {
			for _, middle := range market.Intersect(first.candidates, second.candidates) {
				legOne, err := r.oracle.BestPrice(ctx, first.symbol(middle), first.direction)
				if err != nil {
					return nil, err
				}
				legTwo, err := r.oracle.BestPrice(ctx, second.symbol(middle), second.direction)
				if err != nil {
					return nil, err
				}

				key := fmt.Sprintf("%s_%s_%s", first.direction, middle, second.direction)
				prices[key] = legOne * legTwo

				r.logger.Debug("两跳路径定价",
					zap.String("base", base),
					zap.String("target", target),
					zap.String("path", key),
					zap.Float64("price", prices[key]),
				)
			}
		}
	}

	return prices, nil
}
