package app

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clearance/internal/config"
	"clearance/internal/exchange"
	"clearance/internal/store"
)

// App 聚合核心依赖并并行驱动各账户的清仓。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 为每个账户构造独立的网关实例并并行执行，
// 单个账户的失败只记录日志，不影响其余账户。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("清仓系统已初始化",
		zap.Int("accounts", len(a.cfg.Coinpairs)),
		zap.Float64("slippage", a.cfg.Slippage),
		zap.Float64("percent", a.cfg.Percent),
	)

	var group errgroup.Group
	group.SetLimit(a.cfg.Liquidation.AccountPool)

	for i := range a.cfg.Coinpairs {
		account := a.cfg.Coinpairs[i]
		accountLogger := a.logger.With(
			zap.Int("account", i),
			zap.String("exchange", account.Exchange),
		)

		group.Go(func() error {
			gateway, err := exchange.NewGateway(account.Exchange, exchange.Credentials{
				APIKey: account.APIKey,
				Secret: account.Secret,
			}, accountLogger)
			if err != nil {
				accountLogger.Error("构造交易所网关失败", zap.Error(err))
				return nil
			}

			runner := NewRunner(account, a.cfg.Slippage, a.cfg.Percent, a.cfg.Liquidation, gateway, a.store, accountLogger)
			outcomes, err := runner.Run(ctx)
			if err != nil {
				accountLogger.Error("账户清仓失败", zap.Error(err))
				return nil
			}

			accountLogger.Info("账户清仓结束", zap.Int("symbols", len(outcomes)))
			return nil
		})
	}

	return group.Wait()
}
