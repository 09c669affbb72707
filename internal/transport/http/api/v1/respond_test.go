package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

func TestWriteError(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("op: %w", model.ErrExceedsRemaining), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("op: %w", model.ErrOrderNotFound), want: http.StatusNotFound},
		{name: "invalid state", err: model.ErrInvalidTransition, want: http.StatusConflict},
		{name: "conflict", err: model.ErrConflict, want: http.StatusConflict},
		{name: "compensation failed", err: errors.Join(model.ErrInternal, model.ErrConflict), want: http.StatusInternalServerError},
		{name: "stock check constraint", err: fmt.Errorf("repository.stock.DecrementBatch: %w", fmt.Errorf("%w: violates check constraint", model.ErrInsufficientStock)), want: http.StatusUnprocessableEntity},
		{name: "rollback failed after shortfall", err: errors.Join(model.ErrInternal, &model.InsufficientStockError{Spec: model.NewProductSpec("MS Pipe", "40x40", "2mm")}), want: http.StatusInternalServerError},
		{name: "invariant", err: &model.InvariantViolationError{Detail: "negative remaining"}, want: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.want, rec.Code)
			var body Error
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, int32(tt.want), body.Code)
		})
	}
}

func TestWriteError_InsufficientStock(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodPost, "/", nil), fmt.Errorf("dispatch: %w", &model.InsufficientStockError{
		Spec:      model.NewProductSpec("MS Round Tube", "32mm", "2.0mm"),
		Requested: decimal.NewFromInt(100),
		Available: decimal.NewFromInt(60),
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body Error
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Spec)
	assert.Equal(t, "32mm", body.Spec.Size)
	assert.True(t, body.Requested.Equal(decimal.NewFromInt(100)))
	assert.True(t, body.Available.Equal(decimal.NewFromInt(60)))
}
