package converter

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

func TestKafkaConverter_DispatchExecuted(t *testing.T) {
	t.Parallel()
	conv := NewKafkaConverter()

	in := model.DispatchExecutedEvent{
		EventID:     uuid.New(),
		DispatchID:  uuid.New(),
		HumanNumber: "DO-2026-00007",
		OrderID:     uuid.New(),
		OrderStatus: model.OrderPartialDispatch,
		Quantity:    "60.00",
		GrandTotal:  "5133.00",
		ExecutedAt:  time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	payload, err := conv.DispatchExecutedToPayload(in)
	require.NoError(t, err)

	out, err := conv.DispatchExecutedToModel(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestKafkaConverter_OrderApprovalDecidedToModel(t *testing.T) {
	t.Parallel()
	conv := NewKafkaConverter()

	t.Run("garbage payload", func(t *testing.T) {
		t.Parallel()
		_, err := conv.OrderApprovalDecidedToModel([]byte{0xff, 0x01})
		assert.Error(t, err)
	})

	t.Run("missing order id", func(t *testing.T) {
		t.Parallel()
		payload, err := conv.OrderApprovalDecidedToPayload(model.OrderApprovalDecided{EventID: uuid.New()})
		require.NoError(t, err)

		_, err = conv.OrderApprovalDecidedToModel(payload)
		assert.ErrorContains(t, err, "order_uuid")
	})
}
