package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/fulfillment"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/mocks"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type recordingMetrics struct {
	compensations   []error
	publishFailures []string
}

func (m *recordingMetrics) Observe(string, error, time.Duration) {}

func (m *recordingMetrics) Compensation(err error) {
	m.compensations = append(m.compensations, err)
}

func (m *recordingMetrics) EventPublishFailed(event string) {
	m.publishFailures = append(m.publishFailures, event)
}

func TestServiceDispatch_Saga(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	type deps struct {
		store   *mocks.MockDispatchStore
		stock   *mocks.MockStockLedger
		locker  *mocks.MockLocker
		events  *mocks.MockEventPublisher
		metrics *recordingMetrics
	}

	spec := model.NewProductSpec("MS Round Tube", "32mm", "2.0mm")
	newOrder := func() *model.Order {
		return &model.Order{
			ID:             uuid.New(),
			Number:         "SO-1",
			Lines:          []model.OrderLine{{Spec: spec, OrderedQuantity: q("100"), Rate: q("10"), TaxRate: q("18")}},
			ApprovalStatus: model.ApprovalApproved,
			Status:         model.OrderApproved,
			Version:        3,
		}
	}
	released := func() {}

	type testCase struct {
		name   string
		setup  func(d deps, ord *model.Order)
		assert func(t *testing.T, res *model.DispatchResult, err error, d deps)
	}

	tests := []testCase{
		{
			name: "lock timeout is a conflict",
			setup: func(d deps, ord *model.Order) {
				d.locker.On("Lock", mock.Anything, orderLockKey(ord.ID), time.Second).
					Return(nil, lock.ErrTimeout).Once()
			},
			assert: func(t *testing.T, res *model.DispatchResult, err error, d deps) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, model.ErrConflict)
				d.store.AssertNotCalled(t, "Order", mock.Anything, mock.Anything)
			},
		},
		{
			name: "store commit failure returns stock",
			setup: func(d deps, ord *model.Order) {
				d.locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(released, nil).Once()
				d.store.On("Order", mock.Anything, ord.ID).Return(ord, nil).Once()
				d.store.On("Records", mock.Anything, ord.ID).Return([]*model.DispatchRecord(nil), nil).Once()
				d.stock.On("Available", mock.Anything, spec).Return(q("100"), nil).Once()
				d.stock.On("DecrementBatch", mock.Anything, mock.MatchedBy(func(ms []model.StockMovement) bool {
					return len(ms) == 1 && ms[0].Quantity.Equal(q("60"))
				})).Return([]model.StockChange{{Spec: spec, OldQuantity: q("100"), NewQuantity: q("40")}}, nil).Once()
				d.store.On("Commit", mock.Anything, mock.MatchedBy(func(c *model.DispatchCommit) bool {
					return c.ExpectedVersion == 3 && len(c.Inserts) == 2 &&
						c.Order.Status == model.OrderPartialDispatch
				})).Return(nil, model.ErrConflict).Once()
				d.stock.On("IncrementBatch", mock.Anything, mock.MatchedBy(func(ms []model.StockMovement) bool {
					return len(ms) == 1 && ms[0].Quantity.Equal(q("60")) &&
						ms[0].Remarks != "" && ms[0].Reference != ""
				})).Return([]model.StockChange{{Spec: spec, OldQuantity: q("40"), NewQuantity: q("100")}}, nil).Once()
			},
			assert: func(t *testing.T, res *model.DispatchResult, err error, d deps) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, model.ErrConflict)
				assert.NotErrorIs(t, err, model.ErrInternal)
				assert.Equal(t, []error{nil}, d.metrics.compensations)
			},
		},
		{
			name: "failed compensation is an internal error",
			setup: func(d deps, ord *model.Order) {
				d.locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(released, nil).Once()
				d.store.On("Order", mock.Anything, ord.ID).Return(ord, nil).Once()
				d.store.On("Records", mock.Anything, ord.ID).Return([]*model.DispatchRecord(nil), nil).Once()
				d.stock.On("Available", mock.Anything, spec).Return(q("100"), nil).Once()
				d.stock.On("DecrementBatch", mock.Anything, mock.Anything).Return([]model.StockChange{{}}, nil).Once()
				d.store.On("Commit", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
				d.stock.On("IncrementBatch", mock.Anything, mock.Anything).Return(nil, errors.New("ledger down")).Once()
			},
			assert: func(t *testing.T, res *model.DispatchResult, err error, d deps) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, model.ErrInternal)
				assert.ErrorContains(t, err, "connection reset")
				assert.ErrorContains(t, err, "ledger down")
				require.Len(t, d.metrics.compensations, 1)
				assert.Error(t, d.metrics.compensations[0])
			},
		},
		{
			name: "decrement failure leaves store untouched",
			setup: func(d deps, ord *model.Order) {
				d.locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(released, nil).Once()
				d.store.On("Order", mock.Anything, ord.ID).Return(ord, nil).Once()
				d.store.On("Records", mock.Anything, ord.ID).Return([]*model.DispatchRecord(nil), nil).Once()
				d.stock.On("Available", mock.Anything, spec).Return(q("100"), nil).Once()
				d.stock.On("DecrementBatch", mock.Anything, mock.Anything).
					Return(nil, &model.InsufficientStockError{Spec: spec, Requested: q("60"), Available: q("10")}).Once()
			},
			assert: func(t *testing.T, res *model.DispatchResult, err error, d deps) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				d.store.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
				d.stock.AssertNotCalled(t, "IncrementBatch", mock.Anything, mock.Anything)
			},
		},
		{
			name: "publish failure does not undo the dispatch",
			setup: func(d deps, ord *model.Order) {
				d.locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(released, nil).Once()
				d.store.On("Order", mock.Anything, ord.ID).Return(ord, nil).Once()
				d.store.On("Records", mock.Anything, ord.ID).Return([]*model.DispatchRecord(nil), nil).Once()
				d.stock.On("Available", mock.Anything, spec).Return(q("100"), nil).Once()
				d.stock.On("DecrementBatch", mock.Anything, mock.Anything).Return([]model.StockChange{{}}, nil).Once()
				updated := ord.Clone()
				updated.Status = model.OrderPartialDispatch
				d.store.On("Commit", mock.Anything, mock.Anything).Return(updated, nil).Once()
				d.events.On("PublishDispatchExecuted", mock.Anything, mock.MatchedBy(func(e model.DispatchExecutedEvent) bool {
					return e.OrderID == ord.ID && e.Quantity == "60.00" && e.GrandTotal == "708.00" &&
						e.OrderStatus == model.OrderPartialDispatch
				})).Return(errors.New("broker unavailable")).Once()
			},
			assert: func(t *testing.T, res *model.DispatchResult, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, res.Primary)
				require.NotNil(t, res.Continuation)
				assert.Equal(t, model.DispatchApproved, res.Continuation.Status)
				assert.Equal(t, []string{"dispatch.executed"}, d.metrics.publishFailures)
				d.stock.AssertNotCalled(t, "IncrementBatch", mock.Anything, mock.Anything)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := deps{
				store:   mocks.NewMockDispatchStore(t),
				stock:   mocks.NewMockStockLedger(t),
				locker:  mocks.NewMockLocker(t),
				events:  mocks.NewMockEventPublisher(t),
				metrics: &recordingMetrics{},
			}
			svc := NewDispatchService(d.store, d.stock, d.locker, d.events, d.metrics, Config{
				LockTimeout:    time.Second,
				ReadDBTimeout:  time.Second,
				WriteDBTimeout: time.Second,
			})

			ord := newOrder()
			tt.setup(d, ord)

			res, err := svc.Dispatch(context.Background(), ord.ID, []model.DispatchRequestLine{
				{Spec: spec, Quantity: decimal.NewFromInt(60)},
			})
			tt.assert(t, res, err, d)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	spec := model.NewProductSpec("MS Round Tube", "32mm", "2.0mm")
	ord := &model.Order{
		ID:             uuid.New(),
		Lines:          []model.OrderLine{{Spec: spec, OrderedQuantity: q("10")}},
		ApprovalStatus: model.ApprovalApproved,
		Status:         model.OrderApproved,
	}
	rec := func(status model.DispatchStatus, qty string) *model.DispatchRecord {
		return &model.DispatchRecord{
			ID:      uuid.New(),
			OrderID: ord.ID,
			Status:  status,
			Lines:   []model.DispatchLine{{Spec: spec, DispatchedQuantity: q(qty)}},
		}
	}

	tests := []struct {
		name    string
		order   *model.Order
		history []*model.DispatchRecord
		want    model.OrderStatus
	}{
		{name: "nothing dispatched", order: ord, want: model.OrderApproved},
		{name: "only plans", order: ord, history: []*model.DispatchRecord{rec(model.DispatchApproved, "10")}, want: model.OrderApproved},
		{name: "remainder outstanding", order: ord, history: []*model.DispatchRecord{rec(model.DispatchExecuted, "4")}, want: model.OrderPartialDispatch},
		{name: "fully dispatched", order: ord, history: []*model.DispatchRecord{rec(model.DispatchDelivered, "4"), rec(model.DispatchDispatched, "6")}, want: model.OrderDispatched},
		{name: "fully delivered", order: ord, history: []*model.DispatchRecord{rec(model.DispatchDelivered, "4"), rec(model.DispatchDelivered, "6"), rec(model.DispatchCancelled, "3")}, want: model.OrderCompleted},
		{name: "cancelled stays cancelled", order: &model.Order{ID: ord.ID, Lines: ord.Lines, Status: model.OrderCancelled}, want: model.OrderCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := fulfillment.Compute(tt.order, tt.history)
			require.NoError(t, err)
			assert.Equal(t, tt.want, deriveStatus(tt.order, res, tt.history))
		})
	}
}

func TestServiceExecute_ReloadFailureKeepsCommittedResult(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	store := mocks.NewMockDispatchStore(t)
	stock := mocks.NewMockStockLedger(t)
	locker := mocks.NewMockLocker(t)

	spec := model.NewProductSpec("GI Round Tube", "25mm", "1.6mm")
	ord := &model.Order{
		ID:             uuid.New(),
		Number:         "SO-7",
		Lines:          []model.OrderLine{{Spec: spec, OrderedQuantity: q("100"), Rate: q("10"), TaxRate: q("18")}},
		ApprovalStatus: model.ApprovalApproved,
		Status:         model.OrderApproved,
		Version:        2,
	}
	approved := &model.DispatchRecord{
		ID:          uuid.New(),
		HumanNumber: "DSP-2026-00007",
		OrderID:     ord.ID,
		Status:      model.DispatchApproved,
		Lines: []model.DispatchLine{{
			Spec:               spec,
			OrderedQuantity:    q("100"),
			DispatchedQuantity: q("100"),
			Rate:               q("10"),
		}},
	}
	updated := ord.Clone()
	updated.Status = model.OrderDispatched

	store.On("Record", mock.Anything, approved.ID).Return(approved, nil).Once()
	locker.On("Lock", mock.Anything, orderLockKey(ord.ID), time.Second).Return(func() {}, nil).Once()
	store.On("Order", mock.Anything, ord.ID).Return(ord, nil).Once()
	store.On("Records", mock.Anything, ord.ID).Return([]*model.DispatchRecord{approved}, nil).Once()
	stock.On("Available", mock.Anything, spec).Return(q("100"), nil).Once()
	stock.On("DecrementBatch", mock.Anything, mock.Anything).
		Return([]model.StockChange{{Spec: spec, OldQuantity: q("100"), NewQuantity: q("0")}}, nil).Once()
	store.On("Commit", mock.Anything, mock.MatchedBy(func(c *model.DispatchCommit) bool {
		return len(c.Transitions) == 1 && c.Transitions[0].RecordID == approved.ID && len(c.Inserts) == 0
	})).Return(updated, nil).Once()
	store.On("Record", mock.Anything, approved.ID).Return(nil, errors.New("read replica lagging")).Once()

	svc := NewDispatchService(store, stock, locker, nil, &recordingMetrics{}, Config{
		LockTimeout:    time.Second,
		ReadDBTimeout:  time.Second,
		WriteDBTimeout: time.Second,
	})

	res, err := svc.Execute(context.Background(), approved.ID, "storekeeper")
	require.NoError(t, err)
	require.NotNil(t, res.Primary)
	assert.Equal(t, approved.ID, res.Primary.ID)
	assert.Equal(t, model.DispatchExecuted, res.Primary.Status)
	assert.Nil(t, res.Continuation)
	assert.Equal(t, model.OrderDispatched, res.Order.Status)
	stock.AssertNotCalled(t, "IncrementBatch", mock.Anything, mock.Anything)
}
