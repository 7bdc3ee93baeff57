package liquidation

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// taskRunner 把一个任务执行到终态。
type taskRunner interface {
	Run(ctx context.Context, task Task) (float64, error)
}

// Pool 用固定数量的 worker 共同消费一条任务队列。
// 单个交易对的终止性错误只在 worker 边界记录，不影响队列中其余交易对。
type Pool struct {
	runner  taskRunner
	workers int
	logger  *zap.Logger
}

// NewPool 创建 worker 池。
func NewPool(runner taskRunner, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		runner:  runner,
		workers: workers,
		logger:  logger,
	}
}

// Run 在队列排空且全部 worker 返回后，给出每个任务的结果。
// 上下文取消后，尚未开始的任务不再被消费。
func (p *Pool) Run(ctx context.Context, tasks []Task) []Outcome {
	queue := make(chan Task, len(tasks))
	for _, task := range tasks {
		queue <- task
	}
	close(queue)

	var mu sync.Mutex
	outcomes := make([]Outcome, 0, len(tasks))

	var group errgroup.Group
	for i := 0; i < p.workers; i++ {
		worker := i
		group.Go(func() error {
			for {
				if ctx.Err() != nil {
					p.logger.Warn("上下文已取消，worker 停止消费队列", zap.Int("worker", worker))
					return nil
				}

				var task Task
				var ok bool
				select {
				case <-ctx.Done():
					p.logger.Warn("上下文已取消，worker 停止消费队列", zap.Int("worker", worker))
					return nil
				case task, ok = <-queue:
					if !ok {
						return nil
					}
				}

				remaining, err := p.runner.Run(ctx, task)
				if err != nil {
					p.logger.Error("交易对清仓终止",
						zap.Int("worker", worker),
						zap.String("symbol", task.Symbol),
						zap.Float64("remaining", remaining),
						zap.Error(err),
					)
				} else {
					p.logger.Info("交易对清仓完成",
						zap.Int("worker", worker),
						zap.String("symbol", task.Symbol),
						zap.Float64("remaining", remaining),
					)
				}

				mu.Lock()
				outcomes = append(outcomes, Outcome{
					Symbol:    task.Symbol,
					Remaining: remaining,
					Err:       err,
				})
				mu.Unlock()
			}
		})
	}

	_ = group.Wait()
	return outcomes
}
