package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了清仓运行所需的全部配置项。
type Config struct {
	Slippage    float64           `mapstructure:"slippage"`
	Percent     float64           `mapstructure:"percent"`
	Coinpairs   []AccountConfig   `mapstructure:"coinpairs"`
	Liquidation LiquidationConfig `mapstructure:"liquidation"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// AccountConfig 描述单个交易所账户及其待清仓的交易对。
type AccountConfig struct {
	Exchange string         `mapstructure:"exchange"`
	APIKey   string         `mapstructure:"apiKey"`
	Secret   string         `mapstructure:"secret"`
	Symbols  []SymbolConfig `mapstructure:"symbols"`
}

// SymbolConfig 描述一个交易对及其清仓参考价，参考价即价格阶梯的上限。
type SymbolConfig struct {
	Symbol string  `mapstructure:"symbol"`
	Price  float64 `mapstructure:"price"`
}

// LiquidationConfig 控制阶梯抛售的节奏与重试预算。
type LiquidationConfig struct {
	Steps               int           `mapstructure:"steps"`
	Dwell               time.Duration `mapstructure:"dwell"`
	Workers             int           `mapstructure:"workers"`
	AccountPool         int           `mapstructure:"account_pool"`
	CreateRetries       int           `mapstructure:"create_retries"`
	CancelRetries       int           `mapstructure:"cancel_retries"`
	FetchRetries        int           `mapstructure:"fetch_retries"`
	CancelRetryInterval time.Duration `mapstructure:"cancel_retry_interval"`
}

// DatabaseConfig 管理结果日志数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.Slippage < 0 || c.Slippage >= 1 {
		err = multierr.Append(err, errors.New("slippage 必须位于[0,1)"))
	}
	if c.Percent <= 0 || c.Percent > 1 {
		err = multierr.Append(err, errors.New("percent 必须位于(0,1]"))
	}
	if len(c.Coinpairs) == 0 {
		err = multierr.Append(err, errors.New("coinpairs 至少包含一个账户"))
	}
	for i, account := range c.Coinpairs {
		if account.Exchange == "" {
			err = multierr.Append(err, fmt.Errorf("coinpairs[%d].exchange 不能为空", i))
		}
		if len(account.Symbols) == 0 {
			err = multierr.Append(err, fmt.Errorf("coinpairs[%d].symbols 至少包含一个交易对", i))
		}
		for j, symbol := range account.Symbols {
			if !strings.Contains(symbol.Symbol, "/") {
				err = multierr.Append(err, fmt.Errorf("coinpairs[%d].symbols[%d].symbol 必须为 BASE/QUOTE 形式", i, j))
			}
			if symbol.Price <= 0 {
				err = multierr.Append(err, fmt.Errorf("coinpairs[%d].symbols[%d].price 必须大于0", i, j))
			}
		}
	}
	if c.Liquidation.Steps < 2 {
		err = multierr.Append(err, errors.New("liquidation.steps 必须不小于2"))
	}
	if c.Liquidation.Dwell <= 0 {
		err = multierr.Append(err, errors.New("liquidation.dwell 必须大于0"))
	}
	if c.Liquidation.Workers <= 0 {
		err = multierr.Append(err, errors.New("liquidation.workers 必须大于0"))
	}
	if c.Liquidation.AccountPool <= 0 {
		err = multierr.Append(err, errors.New("liquidation.account_pool 必须大于0"))
	}
	if c.Liquidation.CreateRetries <= 0 || c.Liquidation.CancelRetries <= 0 || c.Liquidation.FetchRetries <= 0 {
		err = multierr.Append(err, errors.New("liquidation 重试预算必须大于0"))
	}
	if c.Liquidation.CancelRetryInterval <= 0 {
		err = multierr.Append(err, errors.New("liquidation.cancel_retry_interval 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
