package kafka

import (
	"context"
	"errors"
)

// Record headers set by producers of this service.
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

var ErrHandlerPanic = errors.New("kafka handler panic")

type (
	Middleware     func(next MessageHandler) MessageHandler
	MessageHandler func(ctx context.Context, msg Message) error
)

type Consumer interface {
	Consume(ctx context.Context, handler MessageHandler) error
}

type Producer interface {
	Send(ctx context.Context, key, value []byte, headers ...Header) error
}

type Header struct {
	Key   string
	Value []byte
}
