package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	apiv1 "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/api/v1"
)

const defaultTransactionsLimit = 50

type StockService interface {
	Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error)
	Increment(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	Decrement(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error)
	Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error)
}

type handler struct {
	svc StockService
}

func NewStockHandler(service StockService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Get("/api/v1/stock", h.GetStock)
	r.Get("/api/v1/stock/transactions", h.Transactions)
	r.Post("/api/v1/stock/increment", h.movement(h.svc.Increment))
	r.Post("/api/v1/stock/decrement", h.movement(h.svc.Decrement))
	r.Post("/api/v1/stock/adjust", h.movement(h.svc.Adjust))
	r.Post("/api/v1/stock/levels", h.SetLevels)
}

func (h *handler) GetStock(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Entry(r.Context(), querySpec(r))
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.StockEntryToAPI(e))
}

func (h *handler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			apiv1.WriteError(w, r, fmt.Errorf("%w: invalid limit", model.ErrValidation))
			return
		}
		limit = n
	}

	txs, err := h.svc.Transactions(r.Context(), querySpec(r), limit)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, lo.Map(txs, func(t model.StockTransaction, _ int) apiv1.StockTransaction {
		return converter.StockTransactionToAPI(t)
	}))
}

func (h *handler) SetLevels(w http.ResponseWriter, r *http.Request) {
	var req apiv1.StockLevelsRequest
	if err := apiv1.Decode(r, &req); err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	e, err := h.svc.SetLevels(r.Context(), converter.StockLevelsFromAPI(req))
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.StockEntryToAPI(e))
}

func (h *handler) movement(
	fn func(ctx context.Context, m model.StockMovement) (*model.StockChange, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiv1.StockMovementRequest
		if err := apiv1.Decode(r, &req); err != nil {
			apiv1.WriteError(w, r, err)
			return
		}

		change, err := fn(r.Context(), converter.StockMovementFromAPI(req))
		if err != nil {
			apiv1.WriteError(w, r, err)
			return
		}

		apiv1.WriteJSON(w, r, http.StatusOK, converter.StockChangeToAPI(change))
	}
}

func querySpec(r *http.Request) model.ProductSpec {
	q := r.URL.Query()
	return model.NewProductSpec(q.Get("product_type"), q.Get("size"), q.Get("thickness"))
}
