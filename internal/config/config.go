package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	envconfig "github.com/aasmaanchaalak/inventoryapp-sub001/internal/config/env"
)

// Backend drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

var cfg *config

type config struct {
	Server   Server
	Logger   Logger
	Postgres Database
	Mongo    Mongo
	Redis    Redis
	Kafka    Kafka
	Dispatch Dispatch
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	serverCfg, err := envconfig.NewHTTPServerConfig()
	if err != nil {
		return fmt.Errorf("%s Server: %w", op, err)
	}

	loggerCfg, err := envconfig.NewLoggerConfig()
	if err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	dispatchCfg, err := envconfig.NewDispatchConfig()
	if err != nil {
		return fmt.Errorf("%s Dispatch: %w", op, err)
	}

	postgresCfg, err := envconfig.NewPostgresConfig()
	if err != nil {
		return fmt.Errorf("%s Postgres: %w", op, err)
	}

	mongoCfg, err := envconfig.NewMongoConfig()
	if err != nil {
		return fmt.Errorf("%s Mongo: %w", op, err)
	}

	redisCfg, err := envconfig.NewRedisConfig()
	if err != nil {
		return fmt.Errorf("%s Redis: %w", op, err)
	}

	kafkaCfg, err := envconfig.NewKafkaConfig()
	if err != nil {
		return fmt.Errorf("%s Kafka: %w", op, err)
	}

	c := &config{
		Server:   serverCfg,
		Logger:   loggerCfg,
		Postgres: postgresCfg,
		Mongo:    mongoCfg,
		Redis:    redisCfg,
		Kafka:    kafkaCfg,
		Dispatch: dispatchCfg,
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cfg = c

	return nil
}

func C() *config { return cfg }

func (c *config) validate() error {
	d := c.Dispatch
	if !oneOf(d.StorageDriver(), DriverMemory, DriverPostgres) {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", d.StorageDriver())
	}
	if !oneOf(d.StockLedgerDriver(), DriverMemory, DriverPostgres, DriverMongo) {
		return fmt.Errorf("unknown STOCK_LEDGER_DRIVER %q", d.StockLedgerDriver())
	}
	if !oneOf(d.OrderLockDriver(), DriverMemory, DriverRedis) {
		return fmt.Errorf("unknown ORDER_LOCK_DRIVER %q", d.OrderLockDriver())
	}
	if d.OrderLockTimeout() <= 0 {
		return errors.New("ORDER_LOCK_TIMEOUT must be positive")
	}
	if c.Kafka.Enabled() && len(c.Kafka.Brokers()) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
