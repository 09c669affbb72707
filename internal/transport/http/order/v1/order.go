package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	apiv1 "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/api/v1"
)

type OrderService interface {
	Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Decide(ctx context.Context, params model.DecideOrderParams) (*model.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error)
}

type handler struct {
	svc OrderService
}

func NewOrderHandler(service OrderService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Post("/api/v1/orders", h.CreateOrder)
	r.Get("/api/v1/orders/{orderID}", h.GetOrder)
	r.Post("/api/v1/orders/{orderID}/decision", h.DecideOrder)
	r.Post("/api/v1/orders/{orderID}/cancel", h.CancelOrder)
}

func (h *handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req apiv1.CreateOrderRequest
	if err := apiv1.Decode(r, &req); err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	ord, err := h.svc.Create(r.Context(), converter.CreateOrderRequestToParams(req))
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusCreated, converter.OrderToAPI(ord))
}

func (h *handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ordID, err := apiv1.PathUUID(r, "orderID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	ord, err := h.svc.Get(r.Context(), ordID)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.OrderToAPI(ord))
}

func (h *handler) DecideOrder(w http.ResponseWriter, r *http.Request) {
	ordID, err := apiv1.PathUUID(r, "orderID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	var req apiv1.DecisionRequest
	if err := apiv1.Decode(r, &req); err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	ord, err := h.svc.Decide(r.Context(), model.DecideOrderParams{
		OrderID:  ordID,
		Decision: model.OrderDecision(req.Decision),
		Approver: req.Approver,
	})
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.OrderToAPI(ord))
}

func (h *handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ordID, err := apiv1.PathUUID(r, "orderID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	var req apiv1.ReasonRequest
	if r.ContentLength != 0 {
		if err := apiv1.Decode(r, &req); err != nil {
			apiv1.WriteError(w, r, err)
			return
		}
	}

	ord, err := h.svc.Cancel(r.Context(), ordID, req.Reason)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.OrderToAPI(ord))
}
