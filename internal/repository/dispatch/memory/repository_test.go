package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

var pipe = model.NewProductSpec("MS Pipe", "40x40", "2mm")

func newOrder(t *testing.T, r *repository) *model.Order {
	t.Helper()
	ord := &model.Order{
		ID:             uuid.New(),
		Number:         gofakeit.Numerify("SO-######"),
		Customer:       gofakeit.Company(),
		Lines:          []model.OrderLine{{Spec: pipe, OrderedQuantity: decimal.NewFromInt(100), Rate: decimal.NewFromInt(55)}},
		ApprovalStatus: model.ApprovalPending,
		Status:         model.OrderPending,
	}
	require.NoError(t, r.CreateOrder(context.Background(), ord))
	return ord
}

func newRecord(orderID uuid.UUID, status model.DispatchStatus) *model.DispatchRecord {
	return &model.DispatchRecord{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  status,
		Lines:   []model.DispatchLine{{Spec: pipe, DispatchedQuantity: decimal.NewFromInt(10)}},
	}
}

func TestRepository_CreateOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r := NewDispatchRepository()
	ord := newOrder(t, r)

	dup := ord.Clone()
	dup.ID = uuid.New()
	assert.ErrorIs(t, r.CreateOrder(ctx, dup), model.ErrConflict)

	got, err := r.Order(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, ord.Number, got.Number)

	_, err = r.Order(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestRepository_Commit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	r := NewDispatchRepository()
	ord := newOrder(t, r)

	primary := newRecord(ord.ID, model.DispatchExecuted)
	cont := newRecord(ord.ID, model.DispatchPending)
	updated, err := r.Commit(ctx, &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: 0,
		NumberPrefix:    model.DefaultNumberPrefix,
		Inserts:         []*model.DispatchRecord{primary, cont},
		Order:           model.OrderChange{Status: model.OrderPartialDispatch},
		At:              at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, model.OrderPartialDispatch, updated.Status)
	assert.Equal(t, "DO-2026-00001", primary.HumanNumber)
	assert.Equal(t, "DO-2026-00002", cont.HumanNumber)

	t.Run("stale version", func(t *testing.T) {
		_, err := r.Commit(ctx, &model.DispatchCommit{OrderID: ord.ID, ExpectedVersion: 0, At: at})
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("from-state mismatch leaves nothing behind", func(t *testing.T) {
		extra := newRecord(ord.ID, model.DispatchExecuted)
		_, err := r.Commit(ctx, &model.DispatchCommit{
			OrderID:         ord.ID,
			ExpectedVersion: 1,
			NumberPrefix:    model.DefaultNumberPrefix,
			Inserts:         []*model.DispatchRecord{extra},
			Transitions: []model.Transition{
				{RecordID: cont.ID, From: model.DispatchApproved, To: model.DispatchExecuted},
			},
			At: at,
		})
		assert.ErrorIs(t, err, model.ErrConflict)

		_, err = r.Record(ctx, extra.ID)
		assert.ErrorIs(t, err, model.ErrDispatchNotFound)

		got, err := r.Order(ctx, ord.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("transition", func(t *testing.T) {
		_, err := r.Commit(ctx, &model.DispatchCommit{
			OrderID:         ord.ID,
			ExpectedVersion: 1,
			Transitions: []model.Transition{
				{RecordID: cont.ID, From: model.DispatchPending, To: model.DispatchCancelled, Actor: "ops", Remarks: "superseded"},
			},
			At: at,
		})
		require.NoError(t, err)

		got, err := r.Record(ctx, cont.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DispatchCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
		assert.Equal(t, "superseded", got.Remarks)
	})

	t.Run("list", func(t *testing.T) {
		status := model.DispatchExecuted
		recs, err := r.List(ctx, model.DispatchFilter{OrderID: &ord.ID, Status: &status})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, primary.ID, recs[0].ID)

		all, err := r.Records(ctx, ord.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, primary.ID, all[0].ID)
	})
}

func TestRepository_ConcurrentNumbersAreUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r := NewDispatchRepository()
	const n = 40

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		ord := newOrder(t, r)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := newRecord(ord.ID, model.DispatchExecuted)
			_, err := r.Commit(ctx, &model.DispatchCommit{
				OrderID:      ord.ID,
				NumberPrefix: model.DefaultNumberPrefix,
				Inserts:      []*model.DispatchRecord{rec},
			})
			assert.NoError(t, err)
			numbers <- rec.HumanNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{}, n)
	for num := range numbers {
		_, dup := seen[num]
		assert.False(t, dup, fmt.Sprintf("duplicate number %s", num))
		seen[num] = struct{}{}
	}
	assert.Len(t, seen, n)
}
