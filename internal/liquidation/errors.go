package liquidation

import "errors"

var (
	// ErrCreateOrder 表示挂单在重试预算耗尽后仍失败，该交易对的清仓终止。
	ErrCreateOrder = errors.New("create sell order failed")
	// ErrCancelOrder 表示撤单在重试预算耗尽后仍失败。
	ErrCancelOrder = errors.New("cancel order failed")
	// ErrFetchOrder 表示查询订单剩余数量在重试预算耗尽后仍失败。
	ErrFetchOrder = errors.New("fetch order failed")
)
