package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/drstein77/shopflow/internal/checkout"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
	Retry  bool     `json:"retry,omitempty"`
}

func (h *BaseController) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses.
func (h *BaseController) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *checkout.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Fields = verr.Fields
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case repository.IsNotFound(err):
		status = http.StatusNotFound
	case repository.IsFetch(err):
		status = http.StatusBadGateway
		resp.Retry = true
	case errors.Is(err, checkout.ErrPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, checkout.ErrPaymentInProgress),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrEmptyCart):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", zap.Error(err))
	}
	h.writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return n, nil
}
