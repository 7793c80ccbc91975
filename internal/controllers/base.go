package controllers

import (
	"context"
	"net/http"

	"github.com/drstein77/shopflow/internal/checkout"
	"github.com/drstein77/shopflow/internal/middleware"
	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/go-chi/chi"
	"go.uber.org/zap/zapcore"
)

// Cart is the shopper's cart as seen by the HTTP layer.
type Cart interface {
	Lines() []models.CartLine
	Summary() models.CartSummary
	AddToCart(ctx context.Context, product models.Product) error
	RemoveFromCart(ctx context.Context, productID int) error
	UpdateQuantity(ctx context.Context, productID, quantity int) error
	ClearCart(ctx context.Context) error
}

// Checkout drives the checkout steps.
type Checkout interface {
	State() checkout.State
	SubmitShipping(info models.ShippingInfo) error
	Back() error
	SubmitPayment(ctx context.Context, info models.PaymentInfo) (models.Order, error)
	Reset() error
}

// Orders reads the most recent confirmed order.
type Orders interface {
	Load(ctx context.Context) (models.Order, bool, error)
}

// Pinger is implemented by catalogs backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Log interface for logging
type Log interface {
	Info(string, ...zapcore.Field)
	Error(string, ...zapcore.Field)
}

// BaseController struct for handling requests
type BaseController struct {
	catalog  repository.Repository
	cart     Cart
	checkout Checkout
	orders   Orders
	log      Log
}

// NewBaseController creates a new BaseController instance
func NewBaseController(catalog repository.Repository, cart Cart, checkout Checkout, orders Orders, log Log) *BaseController {
	return &BaseController{
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		orders:   orders,
		log:      log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/ping", h.ping)

		r.Get("/products", h.listProducts)
		r.Get("/products/featured", h.featuredProducts)
		r.Get("/products/sale", h.saleProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ArchiveTypeMiddleware)
			r.Post("/products/import", h.importProducts)
			r.Get("/products/export", h.exportProducts)
		})

		r.Get("/categories", h.listCategories)
		r.Get("/categories/{id}", h.getCategory)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{id}", h.updateCartItem)
		r.Delete("/cart/items/{id}", h.removeCartItem)

		r.Get("/checkout", h.getCheckout)
		r.Post("/checkout/shipping", h.submitShipping)
		r.Post("/checkout/back", h.checkoutBack)
		r.Post("/checkout/payment", h.submitPayment)
		r.Post("/checkout/reset", h.resetCheckout)

		r.Get("/orders/last", h.lastOrder)
	})

	return r
}

func (h *BaseController) ping(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.catalog.(Pinger); ok && !p.Ping(r.Context()) {
		http.Error(w, "catalog backend unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
