package approvalconsumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type Converter interface {
	OrderApprovalDecidedToModel(data []byte) (model.OrderApprovalDecided, error)
}

type OrderDecider interface {
	Decide(ctx context.Context, params model.DecideOrderParams) (*model.Order, error)
}

type service struct {
	consumer kafka.Consumer
	conv     Converter
	orders   OrderDecider
}

func NewApprovalConsumer(
	consumer kafka.Consumer,
	conv Converter,
	orders OrderDecider,
) *service {
	return &service{consumer: consumer, conv: conv, orders: orders}
}

func (s *service) RunApprovalConsume(ctx context.Context) error {
	logger.Info(ctx, "Starting order approval consumer")

	if err := s.consumer.Consume(ctx, s.approvalHandler); err != nil {
		logger.Error(ctx, "Consume from order.approval topic error", logger.ErrorF(err))
		return err
	}

	return nil
}

// approvalHandler acknowledges decisions that can never succeed so they are
// not redelivered forever.
func (s *service) approvalHandler(ctx context.Context, msg kafka.Message) error {
	event, err := s.conv.OrderApprovalDecidedToModel(msg.Value)
	if err != nil {
		logger.Error(ctx, "Failed to decode OrderApprovalDecided",
			logger.Int64("offset", msg.Offset),
			logger.ErrorF(err),
		)
		return nil
	}

	log := logger.With(
		logger.String("event_id", event.EventID.String()),
		logger.String("order_id", event.OrderID.String()),
		logger.String("decision", string(event.Decision)),
	)

	ord, err := s.orders.Decide(ctx, model.DecideOrderParams{
		OrderID:  event.OrderID,
		Decision: event.Decision,
		Approver: event.Approver,
	})
	switch {
	case err == nil:
		log.Info(ctx, "order decision applied", logger.String("status", string(ord.Status)))
		return nil
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidState):
		log.Warn(ctx, "order decision dropped", logger.ErrorF(err))
		return nil
	default:
		log.Error(ctx, "consumer.Decide", logger.ErrorF(err))
		return fmt.Errorf("decide order %s: %w", event.OrderID, err)
	}
}
