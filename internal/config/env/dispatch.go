package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type dispatchEnv struct {
	NumberPrefix      string        `env:"DISPATCH_NUMBER_PREFIX" envDefault:"DO"`
	StorageDriver     string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	StockLedgerDriver string        `env:"STOCK_LEDGER_DRIVER" envDefault:"memory"`
	OrderLockDriver   string        `env:"ORDER_LOCK_DRIVER" envDefault:"memory"`
	OrderLockTimeout  time.Duration `env:"ORDER_LOCK_TIMEOUT" envDefault:"5s"`
	SeedStock         bool          `env:"STOCK_SEED" envDefault:"false"`
}

type dispatch struct {
	raw dispatchEnv
}

func NewDispatchConfig() (*dispatch, error) {
	var raw dispatchEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &dispatch{raw: raw}, nil
}

func (cfg *dispatch) NumberPrefix() string            { return cfg.raw.NumberPrefix }
func (cfg *dispatch) StorageDriver() string           { return cfg.raw.StorageDriver }
func (cfg *dispatch) StockLedgerDriver() string       { return cfg.raw.StockLedgerDriver }
func (cfg *dispatch) OrderLockDriver() string         { return cfg.raw.OrderLockDriver }
func (cfg *dispatch) OrderLockTimeout() time.Duration { return cfg.raw.OrderLockTimeout }
func (cfg *dispatch) SeedStock() bool                 { return cfg.raw.SeedStock }
