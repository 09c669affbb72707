package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/fulfillment"
	apiv1 "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/api/v1"
)

const defaultListLimit = 100

type DispatchService interface {
	Dispatch(ctx context.Context, orderID uuid.UUID, lines []model.DispatchRequestLine) (*model.DispatchResult, error)
	Execute(ctx context.Context, id uuid.UUID, actor string) (*model.DispatchResult, error)
	Approve(ctx context.Context, id uuid.UUID, approver string) (*model.DispatchRecord, error)
	Ship(ctx context.Context, id uuid.UUID, actor string) (*model.DispatchRecord, error)
	Deliver(ctx context.Context, id uuid.UUID, actor string) (*model.DispatchRecord, error)
	Cancel(ctx context.Context, id uuid.UUID, actor, reason string) (*model.DispatchRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error)
	List(ctx context.Context, filter model.DispatchFilter) ([]*model.DispatchRecord, error)
	Fulfillment(ctx context.Context, orderID uuid.UUID) (*model.Order, fulfillment.Result, error)
}

type handler struct {
	svc DispatchService
}

func NewDispatchHandler(service DispatchService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Post("/api/v1/orders/{orderID}/dispatches", h.Dispatch)
	r.Get("/api/v1/orders/{orderID}/fulfillment", h.Fulfillment)
	r.Get("/api/v1/dispatches", h.ListDispatches)
	r.Get("/api/v1/dispatches/{dispatchID}", h.GetDispatch)
	r.Post("/api/v1/dispatches/{dispatchID}/approve", h.Approve)
	r.Post("/api/v1/dispatches/{dispatchID}/execute", h.Execute)
	r.Post("/api/v1/dispatches/{dispatchID}/ship", h.transition(h.svc.Ship))
	r.Post("/api/v1/dispatches/{dispatchID}/deliver", h.transition(h.svc.Deliver))
	r.Post("/api/v1/dispatches/{dispatchID}/cancel", h.Cancel)
}

func (h *handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ordID, err := apiv1.PathUUID(r, "orderID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	var req apiv1.DispatchRequest
	if err := apiv1.Decode(r, &req); err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Dispatch(r.Context(), ordID, converter.DispatchRequestToLines(req))
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusCreated, converter.DispatchResultToAPI(res))
}

func (h *handler) Fulfillment(w http.ResponseWriter, r *http.Request) {
	ordID, err := apiv1.PathUUID(r, "orderID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	ord, res, err := h.svc.Fulfillment(r.Context(), ordID)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.FulfillmentToAPI(ord, res))
}

func (h *handler) GetDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := apiv1.PathUUID(r, "dispatchID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.DispatchRecordToAPI(rec))
}

func (h *handler) ListDispatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	recs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.DispatchRecordsToAPI(recs))
}

func (h *handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(h.svc.Approve)(w, r)
}

func (h *handler) Execute(w http.ResponseWriter, r *http.Request) {
	id, req, err := actorRequest(r)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Execute(r.Context(), id, req.Actor)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.DispatchResultToAPI(res))
}

func (h *handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := apiv1.PathUUID(r, "dispatchID")
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	var req apiv1.ReasonRequest
	if err := apiv1.Decode(r, &req); err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	rec, err := h.svc.Cancel(r.Context(), id, req.Actor, req.Reason)
	if err != nil {
		apiv1.WriteError(w, r, err)
		return
	}

	apiv1.WriteJSON(w, r, http.StatusOK, converter.DispatchRecordToAPI(rec))
}

func (h *handler) transition(
	fn func(ctx context.Context, id uuid.UUID, actor string) (*model.DispatchRecord, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, req, err := actorRequest(r)
		if err != nil {
			apiv1.WriteError(w, r, err)
			return
		}

		rec, err := fn(r.Context(), id, req.Actor)
		if err != nil {
			apiv1.WriteError(w, r, err)
			return
		}

		apiv1.WriteJSON(w, r, http.StatusOK, converter.DispatchRecordToAPI(rec))
	}
}

func actorRequest(r *http.Request) (uuid.UUID, apiv1.ActorRequest, error) {
	var req apiv1.ActorRequest

	id, err := apiv1.PathUUID(r, "dispatchID")
	if err != nil {
		return uuid.Nil, req, err
	}
	if err := apiv1.Decode(r, &req); err != nil {
		return uuid.Nil, req, err
	}
	return id, req, nil
}

func parseFilter(r *http.Request) (model.DispatchFilter, error) {
	q := r.URL.Query()
	filter := model.DispatchFilter{Limit: defaultListLimit}

	if v := q.Get("order_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid order_id", model.ErrValidation)
		}
		filter.OrderID = &id
	}
	if v := q.Get("status"); v != "" {
		status := model.DispatchStatus(v)
		filter.Status = &status
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid %s, RFC 3339 expected", model.ErrValidation, name)
		}
		*dst = &t
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil || limit == 0 {
			return filter, fmt.Errorf("%w: invalid limit", model.ErrValidation)
		}
		filter.Limit = limit
	}

	return filter, nil
}
