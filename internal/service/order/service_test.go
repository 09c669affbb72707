package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	dispatchmem "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/memory"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/mocks"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type nopMetrics struct{}

func (nopMetrics) Observe(string, error, time.Duration) {}

var spec = model.NewProductSpec("MS Round Tube", "32mm", "2.0mm")

func validLine() model.OrderLine {
	return model.OrderLine{
		Spec:            spec,
		OrderedQuantity: decimal.NewFromFloat(gofakeit.Float64Range(1, 500)),
		Rate:            decimal.NewFromFloat(gofakeit.Price(10, 999)),
		TaxRate:         decimal.NewFromInt(18),
	}
}

func newMemoryService(t *testing.T) (*service, interface {
	OrderRepository
	Record(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error)
}) {
	t.Helper()
	logger.SetNopLogger()
	repo := dispatchmem.NewDispatchRepository()
	return NewOrderService(repo, lock.NewKeyedMutex(), nopMetrics{}, time.Second, time.Second, time.Second), repo
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	type deps struct {
		repository *mocks.MockOrderRepository
	}

	tests := []struct {
		name    string
		params  model.CreateOrderParams
		setup   func(d deps)
		wantErr error
	}{
		{
			name:    "validation error: no lines",
			params:  model.CreateOrderParams{Number: "SO-1"},
			setup:   func(d deps) {},
			wantErr: model.ErrValidation,
		},
		{
			name: "validation error: incomplete spec",
			params: model.CreateOrderParams{Lines: []model.OrderLine{
				{Spec: model.ProductSpec{ProductType: "pipe"}, OrderedQuantity: decimal.NewFromInt(1)},
			}},
			setup:   func(d deps) {},
			wantErr: model.ErrValidation,
		},
		{
			name: "validation error: zero quantity",
			params: model.CreateOrderParams{Lines: []model.OrderLine{
				{Spec: spec, OrderedQuantity: decimal.RequireFromString("0.004")},
			}},
			setup:   func(d deps) {},
			wantErr: model.ErrValidation,
		},
		{
			name: "validation error: tax over 100",
			params: model.CreateOrderParams{Lines: []model.OrderLine{
				{Spec: spec, OrderedQuantity: decimal.NewFromInt(1), TaxRate: decimal.NewFromInt(101)},
			}},
			setup:   func(d deps) {},
			wantErr: model.ErrValidation,
		},
		{
			name:   "duplicate number is a conflict",
			params: model.CreateOrderParams{Number: "SO-7", Lines: []model.OrderLine{validLine()}},
			setup: func(d deps) {
				d.repository.On("CreateOrder", mock.Anything, mock.Anything).Return(model.ErrConflict).Once()
			},
			wantErr: model.ErrConflict,
		},
		{
			name:   "created pending",
			params: model.CreateOrderParams{Customer: " Acme ", Lines: []model.OrderLine{validLine()}},
			setup: func(d deps) {
				d.repository.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
					return o.ID != uuid.Nil && o.Number != "" && o.Customer == "Acme" &&
						o.Status == model.OrderPending && o.ApprovalStatus == model.ApprovalPending
				})).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger.SetNopLogger()

			d := deps{repository: mocks.NewMockOrderRepository(t)}
			tt.setup(d)
			svc := NewOrderService(d.repository, mocks.NewMockLocker(t), nopMetrics{}, time.Second, time.Second, time.Second)

			ord, err := svc.Create(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, ord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.OrderPending, ord.Status)
		})
	}
}

// seed inserts a dispatch record directly through the store.
func seed(t *testing.T, repo OrderRepository, ord *model.Order, status model.DispatchStatus, qty string) *model.DispatchRecord {
	t.Helper()
	ctx := context.Background()

	cur, err := repo.Order(ctx, ord.ID)
	require.NoError(t, err)

	rec := &model.DispatchRecord{
		ID:      uuid.New(),
		OrderID: ord.ID,
		Status:  status,
		Lines: []model.DispatchLine{{
			Spec:               spec,
			DispatchedQuantity: decimal.RequireFromString(qty),
		}},
		AutoGenerated: status.Open(),
	}
	_, err = repo.Commit(ctx, &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: cur.Version,
		NumberPrefix:    model.DefaultNumberPrefix,
		Inserts:         []*model.DispatchRecord{rec},
	})
	require.NoError(t, err)
	return rec
}

func TestServiceDecide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("approval cascades to pending continuation", func(t *testing.T) {
		t.Parallel()
		svc, repo := newMemoryService(t)
		ord, err := svc.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{validLine()}})
		require.NoError(t, err)
		cont := seed(t, repo, ord, model.DispatchPending, "1")

		got, err := svc.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionApproved, Approver: "manager"})
		require.NoError(t, err)
		assert.Equal(t, model.ApprovalApproved, got.ApprovalStatus)
		assert.Equal(t, model.OrderApproved, got.Status)
		assert.Equal(t, "manager", got.ApprovedBy)
		assert.NotNil(t, got.ApprovedAt)

		rec, err := repo.Record(ctx, cont.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DispatchApproved, rec.Status)
		assert.Equal(t, model.SystemActor, rec.ApprovedBy)
		assert.True(t, rec.ApprovedQuantity.Equal(decimal.NewFromInt(1)))

		_, err = svc.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionRejected, Approver: "manager"})
		assert.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("rejection cancels order and open records", func(t *testing.T) {
		t.Parallel()
		svc, repo := newMemoryService(t)
		ord, err := svc.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{validLine()}})
		require.NoError(t, err)
		cont := seed(t, repo, ord, model.DispatchPending, "1")

		got, err := svc.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionRejected, Approver: "manager"})
		require.NoError(t, err)
		assert.Equal(t, model.ApprovalRejected, got.ApprovalStatus)
		assert.Equal(t, model.OrderCancelled, got.Status)
		assert.False(t, got.Dispatchable())

		rec, err := repo.Record(ctx, cont.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DispatchCancelled, rec.Status)
	})

	t.Run("rejection refused once stock was consumed", func(t *testing.T) {
		t.Parallel()
		svc, repo := newMemoryService(t)
		ord, err := svc.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{validLine()}})
		require.NoError(t, err)
		seed(t, repo, ord, model.DispatchExecuted, "1")

		_, err = svc.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionRejected, Approver: "manager"})
		assert.ErrorIs(t, err, model.ErrInvalidState)

		_, err = svc.Cancel(ctx, ord.ID, "")
		assert.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("invalid decision", func(t *testing.T) {
		t.Parallel()
		svc, _ := newMemoryService(t)

		_, err := svc.Decide(ctx, model.DecideOrderParams{OrderID: uuid.New(), Decision: "maybe", Approver: "x"})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = svc.Decide(ctx, model.DecideOrderParams{OrderID: uuid.New(), Decision: model.DecisionApproved})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = svc.Decide(ctx, model.DecideOrderParams{OrderID: uuid.New(), Decision: model.DecisionApproved, Approver: "x"})
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestServiceCancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newMemoryService(t)

	ord, err := svc.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{validLine()}})
	require.NoError(t, err)
	cont := seed(t, repo, ord, model.DispatchApproved, "1")

	got, err := svc.Cancel(ctx, ord.ID, "duplicate order")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.Status)

	rec, err := repo.Record(ctx, cont.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DispatchCancelled, rec.Status)
	assert.Contains(t, rec.Remarks, "duplicate order")

	_, err = svc.Cancel(ctx, ord.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestServiceDecide_LockBusy(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	repo := mocks.NewMockOrderRepository(t)
	locker := mocks.NewMockLocker(t)
	locker.On("Lock", mock.Anything, mock.Anything, time.Second).Return(nil, lock.ErrTimeout).Once()

	svc := NewOrderService(repo, locker, nopMetrics{}, time.Second, time.Second, time.Second)
	_, err := svc.Decide(context.Background(), model.DecideOrderParams{
		OrderID:  uuid.New(),
		Decision: model.DecisionApproved,
		Approver: "manager",
	})
	assert.ErrorIs(t, err, model.ErrConflict)
}
