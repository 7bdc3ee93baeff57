package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clearance/internal/config"
	"clearance/internal/exchange"
	"clearance/internal/ladder"
	"clearance/internal/liquidation"
	"clearance/internal/market"
	"clearance/internal/store"
)

// journal 列出运行记录所需的存储能力。
type journal interface {
	BeginRun(ctx context.Context, run store.RunRecord) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time) error
	RecordOutcome(ctx context.Context, rec store.OutcomeRecord) error
}

// Runner 驱动单个账户的清仓：加载市场与余额、生成任务、运行 worker 池并落库。
// 每个 Runner 持有自己的网关与凭证，账户之间不共享任何可变状态。
type Runner struct {
	account  config.AccountConfig
	slippage float64
	percent  float64
	liq      config.LiquidationConfig
	gateway  exchange.Gateway
	journal  journal
	logger   *zap.Logger
}

// NewRunner 创建账户执行器。
func NewRunner(account config.AccountConfig, slippage, percent float64, liq config.LiquidationConfig, gateway exchange.Gateway, journal journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		account:  account,
		slippage: slippage,
		percent:  percent,
		liq:      liq,
		gateway:  gateway,
		journal:  journal,
		logger:   logger,
	}
}

// Run 执行该账户的全部清仓任务并返回记录的结果。
func (r *Runner) Run(ctx context.Context) ([]liquidation.Outcome, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	if err := r.journal.BeginRun(ctx, store.RunRecord{
		ID:        runID,
		Exchange:  r.account.Exchange,
		StartedAt: startedAt,
	}); err != nil {
		return nil, err
	}

	symbols, err := r.gateway.LoadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载市场元数据失败: %w", err)
	}
	graph := market.BuildGraph(symbols)

	free, err := r.gateway.FetchFreeBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取账户余额失败: %w", err)
	}

	tasks, err := r.buildTasks(ctx, runID, graph, free)
	if err != nil {
		return nil, err
	}

	lifecycle := liquidation.NewLifecycle(r.gateway, liquidation.Options{
		Dwell:               r.liq.Dwell,
		CancelRetryInterval: r.liq.CancelRetryInterval,
		Budget: liquidation.Budget{
			Create: r.liq.CreateRetries,
			Cancel: r.liq.CancelRetries,
			Fetch:  r.liq.FetchRetries,
		},
	}, r.logger)

	pool := liquidation.NewPool(lifecycle, r.liq.Workers, r.logger)
	outcomes := pool.Run(ctx, tasks)

	for _, outcome := range outcomes {
		detail := ""
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		if err := r.journal.RecordOutcome(ctx, store.OutcomeRecord{
			RunID:     runID,
			Symbol:    outcome.Symbol,
			Remaining: outcome.Remaining,
			Status:    outcome.Status(),
			Detail:    detail,
		}); err != nil {
			r.logger.Warn("写入清仓结果失败", zap.String("symbol", outcome.Symbol), zap.Error(err))
		}
	}

	if err := r.journal.FinishRun(ctx, runID, time.Now().UTC()); err != nil {
		r.logger.Warn("更新运行记录失败", zap.String("run_id", runID), zap.Error(err))
	}

	return outcomes, nil
}

// buildTasks 计算每个交易对的可抛数量与价格阶梯。
// 可抛数量为基础币可用余额的固定比例，阶梯上限为配置的参考价，
// 下限为参考价按滑点折让后的底价。
func (r *Runner) buildTasks(ctx context.Context, runID string, graph *market.Graph, free map[string]float64) ([]liquidation.Task, error) {
	tasks := make([]liquidation.Task, 0, len(r.account.Symbols))

	for _, symbolCfg := range r.account.Symbols {
		base, _, err := market.Split(symbolCfg.Symbol)
		if err != nil {
			return nil, fmt.Errorf("配置中的交易对非法: %w", err)
		}

		if !graph.Listed(symbolCfg.Symbol) {
			r.logger.Warn("交易对未在交易所挂牌，仍按配置尝试",
				zap.String("symbol", symbolCfg.Symbol),
			)
		}

		amount := free[base] * r.percent
		if amount <= 0 {
			r.logger.Warn("基础币无可用余额，跳过",
				zap.String("symbol", symbolCfg.Symbol),
				zap.String("base", base),
			)
			if err := r.journal.RecordOutcome(ctx, store.OutcomeRecord{
				RunID:  runID,
				Symbol: symbolCfg.Symbol,
				Status: "skipped",
				Detail: "基础币无可用余额",
			}); err != nil {
				r.logger.Warn("写入清仓结果失败", zap.String("symbol", symbolCfg.Symbol), zap.Error(err))
			}
			continue
		}

		floor := symbolCfg.Price * (1 - r.slippage)
		prices, err := ladder.Build(floor, symbolCfg.Price, r.liq.Steps)
		if err != nil {
			return nil, fmt.Errorf("构建 %s 价格阶梯失败: %w", symbolCfg.Symbol, err)
		}

		tasks = append(tasks, liquidation.Task{
			Symbol: symbolCfg.Symbol,
			Amount: amount,
			Ladder: prices,
		})
	}

	return tasks, nil
}
