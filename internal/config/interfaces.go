package config

import (
	"time"

	"github.com/IBM/sarama"
)

type Server interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
	DBReadTimeout() time.Duration
	DBWriteTimeout() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}

type Database interface {
	MigrationDirectory() string
	DSN() string
}

type Mongo interface {
	DSN() string
	DatabaseName() string
	StockCollection() string
}

type Redis interface {
	Address() string
	Password() string
	DB() int
	LockPrefix() string
	LockTTL() time.Duration
}

type Kafka interface {
	Enabled() bool
	Brokers() []string
	DispatchExecutedTopic() string
	OrderApprovalTopic() string
	ConsumerGroupID() string
	OrderApprovalConsumerConfig() *sarama.Config
	DispatchExecutedProducerConfig() *sarama.Config
}

type Dispatch interface {
	NumberPrefix() string
	StorageDriver() string
	StockLedgerDriver() string
	OrderLockDriver() string
	OrderLockTimeout() time.Duration
	SeedStock() bool
}
