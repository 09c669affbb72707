package approvalconsumer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/mocks"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type stubConsumer struct {
	msgs []kafka.Message
	errs []error
}

func (c *stubConsumer) Consume(ctx context.Context, handler kafka.MessageHandler) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return nil
}

func TestApprovalHandler(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	conv := converter.NewKafkaConverter()
	orderID := uuid.New()

	payload := func(decision model.OrderDecision) []byte {
		p, err := conv.OrderApprovalDecidedToPayload(model.OrderApprovalDecided{
			EventID:  uuid.New(),
			OrderID:  orderID,
			Decision: decision,
			Approver: "finance",
		})
		require.NoError(t, err)
		return p
	}

	tests := []struct {
		name    string
		value   []byte
		setup   func(d *mocks.MockOrderDecider)
		wantErr bool
	}{
		{
			name:  "applies decision",
			value: payload(model.DecisionApproved),
			setup: func(d *mocks.MockOrderDecider) {
				d.On("Decide", mock.Anything, model.DecideOrderParams{
					OrderID: orderID, Decision: model.DecisionApproved, Approver: "finance",
				}).Return(&model.Order{ID: orderID, Status: model.OrderApproved}, nil).Once()
			},
		},
		{
			name:  "already decided is acknowledged",
			value: payload(model.DecisionRejected),
			setup: func(d *mocks.MockOrderDecider) {
				d.On("Decide", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidState).Once()
			},
		},
		{
			name:  "undecodable payload is acknowledged",
			value: []byte("not a protobuf"),
			setup: func(d *mocks.MockOrderDecider) {},
		},
		{
			name:  "store failure is retried",
			value: payload(model.DecisionApproved),
			setup: func(d *mocks.MockOrderDecider) {
				d.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			decider := mocks.NewMockOrderDecider(t)
			tt.setup(decider)

			c := &stubConsumer{msgs: []kafka.Message{{Topic: "order.approval", Value: tt.value}}}
			require.NoError(t, NewApprovalConsumer(c, conv, decider).RunApprovalConsume(context.Background()))
			require.Len(t, c.errs, 1)
			if tt.wantErr {
				assert.Error(t, c.errs[0])
			} else {
				assert.NoError(t, c.errs[0])
			}
		})
	}
}
