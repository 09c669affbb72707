package consumer

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
)

const (
	defaultMaxRejoins    = 5
	defaultRejoinBackoff = time.Second
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type consumer struct {
	group       sarama.ConsumerGroup
	topics      []string
	logger      Logger
	middlewares []kafka.Middleware

	maxRejoins    int
	rejoinBackoff time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, logger Logger, middlewares ...kafka.Middleware) *consumer {
	return &consumer{
		group:         group,
		topics:        topics,
		logger:        logger,
		middlewares:   middlewares,
		maxRejoins:    defaultMaxRejoins,
		rejoinBackoff: defaultRejoinBackoff,
	}
}

// WithRejoin sets how many consecutive failed sessions are retried and the
// pause before the first retry. The pause doubles on every failure.
func (c *consumer) WithRejoin(maxRejoins int, backoff time.Duration) *consumer {
	c.maxRejoins = max(maxRejoins, 0)
	c.rejoinBackoff = backoff
	return c
}

// Consume blocks until ctx is cancelled, the group is closed or the group
// keeps failing after maxRejoins rejoins.
func (c *consumer) Consume(ctx context.Context, handler kafka.MessageHandler) error {
	gh := NewGroupHandler(handler, c.logger, c.middlewares...)
	topics := zap.Strings("topics", c.topics)

	dctx, stop := context.WithCancel(ctx)
	defer stop()
	go c.drainErrors(dctx, topics)

	failures := 0
	pause := c.rejoinBackoff
	for {
		err := c.group.Consume(ctx, c.topics, gh)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err == nil:
			failures, pause = 0, c.rejoinBackoff
			c.logger.Info(ctx, "Kafka consumer group rebalancing", topics)
			continue
		}

		failures++
		if failures > c.maxRejoins {
			c.logger.Error(ctx, "Kafka consume failed, giving up", topics, zap.Int("failures", failures), zap.Error(err))
			return errors.Wrap(err, "kafka consume")
		}

		c.logger.Error(ctx, "Kafka consume failed, rejoining",
			topics,
			zap.Int("failures", failures),
			zap.Duration("backoff", pause),
			zap.Error(err),
		)

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		pause *= 2
	}
}

// drainErrors logs background group errors; sarama only delivers them when
// Consumer.Return.Errors is set, and the channel closes with the group.
func (c *consumer) drainErrors(ctx context.Context, topics zap.Field) {
	errs := c.group.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.logger.Error(ctx, "Kafka consumer group error", topics, zap.Error(err))
		}
	}
}
