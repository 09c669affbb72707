package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(r.Context(), "write response", logger.ErrorF(err))
	}
}

// WriteError maps domain error kinds to status codes.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := Error{Message: err.Error()}

	var short *model.InsufficientStockError
	switch {
	case errors.Is(err, model.ErrInternal):
		resp.Code = http.StatusInternalServerError // 500
	case errors.As(err, &short):
		resp.Code = http.StatusUnprocessableEntity // 422
		resp.Spec = &ProductSpec{
			ProductType: short.Spec.ProductType,
			Size:        short.Spec.Size,
			Thickness:   short.Spec.Thickness,
		}
		resp.Requested = &short.Requested
		resp.Available = &short.Available
	case errors.Is(err, model.ErrInsufficientStock):
		resp.Code = http.StatusUnprocessableEntity // 422
	case errors.Is(err, model.ErrValidation):
		resp.Code = http.StatusBadRequest // 400
	case errors.Is(err, model.ErrNotFound):
		resp.Code = http.StatusNotFound // 404
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrInvalidState):
		resp.Code = http.StatusConflict // 409
	default:
		resp.Code = http.StatusInternalServerError // 500
	}

	if resp.Code >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.ErrorF(err),
		)
	}

	WriteJSON(w, r, int(resp.Code), resp)
}

func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", model.ErrValidation, err)
	}
	return nil
}

func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", model.ErrValidation, name)
	}
	return id, nil
}
