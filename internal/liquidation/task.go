package liquidation

// Task 描述一个交易对的清仓任务。Ladder 为升序价格阶梯，消费时从最高价开始。
type Task struct {
	Symbol string
	Amount float64
	Ladder []float64
}

// Outcome 记录单个交易对清仓结束时的状态。
// Err 非空表示该交易对以终止性错误收场，Remaining 为当时的未抛出数量。
type Outcome struct {
	Symbol    string
	Remaining float64
	Err       error
}

// Status 把结果归类为日志与存储使用的状态串。
func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "failed"
	case o.Remaining > 0:
		return "partial"
	default:
		return "liquidated"
	}
}
