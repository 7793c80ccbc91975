package controllers

import (
	"context"
	"net/http"

	"github.com/drstein77/shopflow/internal/models"
	"go.uber.org/zap"
)

func (h *BaseController) getCheckout(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.checkout.State())
}

func (h *BaseController) submitShipping(w http.ResponseWriter, r *http.Request) {
	var info models.ShippingInfo
	if err := decodeJSON(r, &info); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.checkout.SubmitShipping(info); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.checkout.State())
}

func (h *BaseController) checkoutBack(w http.ResponseWriter, _ *http.Request) {
	if err := h.checkout.Back(); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.checkout.State())
}

// submitPayment charges the cart. The charge outlives a disconnected client
// so the pending submission always resolves.
func (h *BaseController) submitPayment(w http.ResponseWriter, r *http.Request) {
	var info models.PaymentInfo
	if err := decodeJSON(r, &info); err != nil {
		h.writeError(w, err)
		return
	}
	o, err := h.checkout.SubmitPayment(context.WithoutCancel(r.Context()), info)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("Order placed", zap.Int64("id", o.ID))
	h.writeJSON(w, http.StatusCreated, o)
}

func (h *BaseController) resetCheckout(w http.ResponseWriter, _ *http.Request) {
	if err := h.checkout.Reset(); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.checkout.State())
}

func (h *BaseController) lastOrder(w http.ResponseWriter, r *http.Request) {
	o, ok, err := h.orders.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no order has been placed"})
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}
