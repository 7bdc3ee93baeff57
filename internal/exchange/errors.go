package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

var (
	// ErrTimeout 表示请求超时，结果不确定，调用方需要自行消歧。
	ErrTimeout = errors.New("gateway request timeout")
	// ErrOrderNotFound 表示交易所找不到该订单。
	ErrOrderNotFound = errors.New("gateway order not found")
	// ErrNetwork 表示除超时外的传输层失败。
	ErrNetwork = errors.New("gateway network failure")
	// ErrAuthentication 表示凭证被交易所拒绝。
	ErrAuthentication = errors.New("gateway authentication failure")
	// ErrExchange 表示交易所侧的业务失败。
	ErrExchange = errors.New("gateway exchange failure")
)

// Classify 将底层 ccxt 错误归入网关错误类别，便于上层用 errors.Is 判定。
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		message := strings.TrimSpace(ccxtErr.Message)
		switch ccxtErr.Type {
		case ccxt.RequestTimeoutErrType:
			return fmt.Errorf("%w: %s", ErrTimeout, message)
		case ccxt.OrderNotFoundErrType:
			return fmt.Errorf("%w: %s", ErrOrderNotFound, message)
		case ccxt.AuthenticationErrorErrType:
			return fmt.Errorf("%w: %s", ErrAuthentication, message)
		case ccxt.NetworkErrorErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType:
			return fmt.Errorf("%w: %s", ErrNetwork, message)
		default:
			return fmt.Errorf("%w: %s", ErrExchange, message)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return fmt.Errorf("%w: %v", ErrExchange, err)
}

// IsTimeout 判断错误是否为请求超时。
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsOrderNotFound 判断错误是否为订单不存在。
func IsOrderNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
