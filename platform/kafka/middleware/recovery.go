package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
)

type ErrorLogger interface {
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

// Recovery turns a handler panic into an error; the record is then left unmarked.
func Recovery(l ErrorLogger) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error(ctx, "Recovered from panic in message processing",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				err = fmt.Errorf("%w: %v", kafka.ErrHandlerPanic, r)
			}()
			return next(ctx, msg)
		}
	}
}
