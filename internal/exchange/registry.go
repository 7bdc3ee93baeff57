package exchange

import (
	"fmt"
	"sort"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"
)

// Credentials 为单个账户的交易所凭证。
type Credentials struct {
	APIKey string
	Secret string
}

type factory func(params map[string]interface{}) marketClient

// registry 把交易所标识映射到 ccxt 构造函数，取代按名称动态构造客户端的做法。
var registry = map[string]factory{
	"binance": func(params map[string]interface{}) marketClient { return ccxt.NewBinance(params) },
	"bybit":   func(params map[string]interface{}) marketClient { return ccxt.NewBybit(params) },
	"gate":    func(params map[string]interface{}) marketClient { return ccxt.NewGate(params) },
	"kraken":  func(params map[string]interface{}) marketClient { return ccxt.NewKraken(params) },
	"kucoin":  func(params map[string]interface{}) marketClient { return ccxt.NewKucoin(params) },
	"okx":     func(params map[string]interface{}) marketClient { return ccxt.NewOkx(params) },
}

// NewGateway 按交易所标识构造 Gateway，每次调用返回持有独立凭证的新实例。
func NewGateway(name string, creds Credentials, logger *zap.Logger) (Gateway, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	build, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("不支持的交易所 %q，可用: %s", name, strings.Join(SupportedExchanges(), ", "))
	}

	params := map[string]interface{}{
		"enableRateLimit": true,
	}
	if creds.APIKey != "" {
		params["apiKey"] = creds.APIKey
	}
	if creds.Secret != "" {
		params["secret"] = creds.Secret
	}

	return NewClient(key, build(params), logger), nil
}

// SupportedExchanges 返回注册表内全部交易所标识。
func SupportedExchanges() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
