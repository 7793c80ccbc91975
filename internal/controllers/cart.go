package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/drstein77/shopflow/internal/models"
)

type cartResponse struct {
	Lines   []models.CartLine  `json:"lines"`
	Summary models.CartSummary `json:"summary"`
}

// maxAddQuantity bounds how many units a single add request may carry.
const maxAddQuantity = 99

type addItemRequest struct {
	ProductID int `json:"productId"`
	// Quantity defaults to one unit when omitted.
	Quantity int `json:"quantity,omitempty"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *BaseController) cartState() cartResponse {
	return cartResponse{Lines: h.cart.Lines(), Summary: h.cart.Summary()}
}

func (h *BaseController) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cartState())
}

// addCartItem adds quantity units (one by default) of an existing catalog
// product.
func (h *BaseController) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > maxAddQuantity {
		h.writeError(w, fmt.Errorf("%w: quantity must be between 1 and %d", errBadRequest, maxAddQuantity))
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.mutateCart(w, r, func(ctx context.Context) error {
		for range req.Quantity {
			if err := h.cart.AddToCart(ctx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *BaseController) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	h.mutateCart(w, r, func(ctx context.Context) error {
		return h.cart.UpdateQuantity(ctx, id, req.Quantity)
	})
}

func (h *BaseController) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.mutateCart(w, r, func(ctx context.Context) error {
		return h.cart.RemoveFromCart(ctx, id)
	})
}

func (h *BaseController) clearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, h.cart.ClearCart)
}

func (h *BaseController) mutateCart(w http.ResponseWriter, r *http.Request, fn func(context.Context) error) {
	if err := fn(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartState())
}
