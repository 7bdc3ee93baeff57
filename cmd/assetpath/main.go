package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"clearance/internal/exchange"
	"clearance/internal/pathway"
)

func main() {
	var (
		exchangeName string
		base         string
		target       string
		depth        int64
	)
	flag.StringVar(&exchangeName, "exchange", "binance", "交易所标识")
	flag.StringVar(&base, "base", "", "源币种")
	flag.StringVar(&target, "target", "", "目标币种")
	flag.Int64Var(&depth, "depth", 5, "盘口查询深度")
	flag.Parse()

	if base == "" || target == "" {
		fmt.Fprintln(os.Stderr, "必须指定 -base 与 -target")
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	gateway, err := exchange.NewGateway(exchangeName, exchange.Credentials{}, logger)
	if err != nil {
		logger.Error("构造交易所网关失败", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	oracle := pathway.NewOracle(gateway, depth, logger)
	resolver := pathway.NewResolver(gateway, oracle, logger)

	prices, err := resolver.Resolve(ctx, base, target)
	if err != nil {
		logger.Error("路径解析失败", zap.Error(err))
		os.Exit(1)
	}

	if len(prices) == 0 {
		fmt.Printf("%s -> %s 不存在一跳或两跳换算路径\n", base, target)
		return
	}

	keys := make([]string, 0, len(prices))
	for key := range prices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%s\t%.10f\n", key, prices[key])
	}
}
