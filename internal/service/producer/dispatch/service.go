package dispatchproducer

import (
	"context"
	"fmt"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
)

const (
	HeaderEventID   = kafka.HeaderEventID
	HeaderEventType = kafka.HeaderEventType

	EventDispatchExecuted = "dispatch.executed"
)

type Converter interface {
	DispatchExecutedToPayload(e model.DispatchExecutedEvent) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewDispatchProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

// PublishDispatchExecuted keys records by order so events of one order stay ordered.
func (s *service) PublishDispatchExecuted(ctx context.Context, event model.DispatchExecutedEvent) error {
	payload, err := s.conv.DispatchExecutedToPayload(event)
	if err != nil {
		return fmt.Errorf("converter dispatch_executed_to_payload error: %w", err)
	}

	err = s.producer.Send(ctx, []byte(event.OrderID.String()), payload,
		kafka.Header{Key: HeaderEventID, Value: []byte(event.EventID.String())},
		kafka.Header{Key: HeaderEventType, Value: []byte(EventDispatchExecuted)},
	)
	if err != nil {
		return fmt.Errorf("producer to dispatch.executed topic error: %w", err)
	}

	return nil
}
