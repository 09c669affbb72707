package middleware

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
)

type WarnLogger interface {
	Warn(ctx context.Context, msg string, fields ...zap.Field)
}

// Retry re-runs a failing handler up to attempts times, doubling the pause
// after each failure. Panics are not retried.
func Retry(l WarnLogger, attempts int, backoff time.Duration) kafka.Middleware {
	if attempts < 1 {
		attempts = 1
	}

	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) error {
			pause := backoff
			var err error
			for attempt := 1; ; attempt++ {
				if err = next(ctx, msg); err == nil {
					return nil
				}
				if attempt >= attempts || errors.Is(err, kafka.ErrHandlerPanic) {
					return err
				}

				l.Warn(ctx, "Kafka handler failed, retrying",
					zap.Int("attempt", attempt),
					zap.Duration("backoff", pause),
					zap.Error(err),
				)

				t := time.NewTimer(pause)
				select {
				case <-ctx.Done():
					t.Stop()
					return err
				case <-t.C:
				}
				pause *= 2
			}
		}
	}
}
