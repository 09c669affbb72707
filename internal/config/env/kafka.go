package envconfig

import (
	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
)

type kafkaEnv struct {
	Enabled               bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers               []string `env:"KAFKA_BROKERS"`
	DispatchExecutedTopic string   `env:"DISPATCH_EXECUTED_TOPIC_NAME" envDefault:"dispatch.executed"`
	OrderApprovalTopic    string   `env:"ORDER_APPROVAL_TOPIC_NAME" envDefault:"order.approval"`
	OrderApprovalGroupID  string   `env:"ORDER_APPROVAL_CONSUMER_GROUP_ID" envDefault:"dispatch-service"`
}

type kafka struct {
	raw kafkaEnv
}

func NewKafkaConfig() (*kafka, error) {
	var raw kafkaEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &kafka{raw: raw}, nil
}

func (cfg *kafka) Enabled() bool                 { return cfg.raw.Enabled }
func (cfg *kafka) Brokers() []string             { return cfg.raw.Brokers }
func (cfg *kafka) DispatchExecutedTopic() string { return cfg.raw.DispatchExecutedTopic }
func (cfg *kafka) OrderApprovalTopic() string    { return cfg.raw.OrderApprovalTopic }
func (cfg *kafka) ConsumerGroupID() string       { return cfg.raw.OrderApprovalGroupID }

func (cfg *kafka) OrderApprovalConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	return config
}

func (cfg *kafka) DispatchExecutedProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	return config
}
