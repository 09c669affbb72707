package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

// Logging tags ctx with the record coordinates, so every line the handler
// logs carries them, and reports the outcome once the handler returns.
func Logging(l Logger) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) error {
			fields := []zap.Field{
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			}
			if id := msg.Header(kafka.HeaderEventID); id != "" {
				fields = append(fields, zap.String("event_id", id))
			}
			ctx = logger.WithContext(ctx, fields...)

			start := time.Now()
			err := next(ctx, msg)
			took := zap.Duration("took", time.Since(start))

			if err != nil {
				l.Error(ctx, "Kafka msg failed", took, zap.Error(err))
				return err
			}
			l.Info(ctx, "Kafka msg handled", took)
			return nil
		}
	}
}
