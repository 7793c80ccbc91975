package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drstein77/shopflow/internal/cart"
	"github.com/drstein77/shopflow/internal/catalog"
	"github.com/drstein77/shopflow/internal/checkout"
	"github.com/drstein77/shopflow/internal/compress"
	"github.com/drstein77/shopflow/internal/logger"
	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/order"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/drstein77/shopflow/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	repo *repository.Memory
	cart *cart.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	slots := storage.NewMemoryStorage(log)
	repo := repository.NewSeededMemory(log)

	c := cart.New(slots, log)
	require.NoError(t, c.Load(context.Background()))
	orders := order.NewLastOrderStore(slots, log)
	machine := checkout.New(c, order.NewBuilder(), orders, checkout.NewSimulatedGateway(0), log)

	srv := httptest.NewServer(NewBaseController(repo, c, machine, orders, log).Route())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, repo: repo, cart: c}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func ids(products []models.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		ids     []int
		total   int
		filters int
	}{
		{
			name:    "category and stock sorted by price",
			query:   "?category=Sports&inStock=true&sort=price-low",
			ids:     []int{7, 6},
			total:   2,
			filters: 2,
		},
		{
			name:  "search",
			query: "?search=COFFEE",
			ids:   []int{11},
			total: 1,
		},
		{
			name:    "price range uses sale price",
			query:   "?minPrice=140&maxPrice=150",
			ids:     []int{1},
			total:   1,
			filters: 2,
		},
		{
			name:    "free shipping filters nothing",
			query:   "?freeShipping=true&category=Beauty&sort=price-high",
			ids:     []int{15, 14},
			total:   2,
			filters: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodGet, "/api/v0/products"+tt.query, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			got := decode[listResponse](t, resp)
			assert.Equal(t, tt.ids, ids(got.Items))
			assert.Equal(t, tt.total, got.TotalItems)
			assert.Equal(t, tt.filters, got.ActiveFilters)
		})
	}
}

func TestListProductsPagination(t *testing.T) {
	s := newTestServer(t)

	first := decode[listResponse](t, s.do(t, http.MethodGet, "/api/v0/products", nil))
	assert.Len(t, first.Items, catalog.PageSize)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 15, first.TotalItems)
	assert.Equal(t, catalog.SortName, first.Sort)

	second := decode[listResponse](t, s.do(t, http.MethodGet, "/api/v0/products?page=2", nil))
	assert.Len(t, second.Items, 3)

	beyond := decode[listResponse](t, s.do(t, http.MethodGet, "/api/v0/products?page=9", nil))
	assert.Empty(t, beyond.Items)
}

func TestListProductsBadQuery(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"?minPrice=cheap", "?onSale=maybe", "?page=two"} {
		resp := s.do(t, http.MethodGet, "/api/v0/products"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestFetchFailureIsRetryable(t *testing.T) {
	s := newTestServer(t)
	s.repo.SetFailure(errors.New("connection refused"))

	resp := s.do(t, http.MethodGet, "/api/v0/products", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[errorResponse](t, resp)
	assert.True(t, body.Retry)

	s.repo.SetFailure(nil)
	resp = s.do(t, http.MethodGet, "/api/v0/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductViews(t *testing.T) {
	s := newTestServer(t)

	featured := decode[[]models.Product](t, s.do(t, http.MethodGet, "/api/v0/products/featured", nil))
	for _, p := range featured {
		assert.True(t, p.Featured)
	}
	assert.NotEmpty(t, featured)

	sale := decode[[]models.Product](t, s.do(t, http.MethodGet, "/api/v0/products/sale", nil))
	for _, p := range sale {
		assert.True(t, p.OnSale())
	}
	assert.NotEmpty(t, sale)
}

func TestGetProductAndCategory(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v0/products/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Wireless Headphones", decode[models.Product](t, resp).Name)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v0/products/999", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v0/products/abc", nil).StatusCode)

	categories := decode[[]models.Category](t, s.do(t, http.MethodGet, "/api/v0/categories", nil))
	assert.Len(t, categories, 6)

	resp = s.do(t, http.MethodGet, "/api/v0/categories/6", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	beauty := decode[models.Category](t, resp)
	assert.Equal(t, "Beauty", beauty.Name)
	assert.Equal(t, 2, beauty.Count)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v0/categories/42", nil).StatusCode)
}

func TestCartEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1})
	s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 4})

	got := decode[cartResponse](t, s.do(t, http.MethodGet, "/api/v0/cart", nil))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, 3, got.Summary.Items)
	assert.Equal(t, "329.97", got.Summary.Subtotal.StringFixed(2))

	got = decode[cartResponse](t, s.do(t, http.MethodPut, "/api/v0/cart/items/1", quantityRequest{Quantity: 5}))
	assert.Equal(t, 5, got.Lines[0].Quantity)

	got = decode[cartResponse](t, s.do(t, http.MethodDelete, "/api/v0/cart/items/4", nil))
	assert.Len(t, got.Lines, 1)

	got = decode[cartResponse](t, s.do(t, http.MethodPut, "/api/v0/cart/items/1", quantityRequest{Quantity: 0}))
	assert.Empty(t, got.Lines)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 999}).StatusCode)

	s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 2})
	got = decode[cartResponse](t, s.do(t, http.MethodDelete, "/api/v0/cart", nil))
	assert.Empty(t, got.Lines)
	assert.True(t, s.cart.IsEmpty())
}

func TestAddCartItemQuantity(t *testing.T) {
	s := newTestServer(t)

	got := decode[cartResponse](t, s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1, Quantity: 3}))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 3, got.Lines[0].Quantity)

	got = decode[cartResponse](t, s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1}))
	assert.Equal(t, 4, got.Lines[0].Quantity)

	for _, q := range []int{-1, maxAddQuantity + 1} {
		resp := s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1, Quantity: q})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	assert.Equal(t, 4, s.cart.ItemQuantity(1))
}

func TestCartRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v0/cart/items", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Address:   "12 Analytical St",
		City:      "London",
		State:     "LDN",
		ZipCode:   "10001",
	}
}

func payment(card string) models.PaymentInfo {
	return models.PaymentInfo{
		CardNumber: card,
		ExpiryDate: "12/29",
		CVV:        "123",
		CardName:   "Ada Lovelace",
	}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v0/orders/last", nil).StatusCode)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v0/checkout/shipping", shipping()).StatusCode, "empty cart")

	s.do(t, http.MethodPost, "/api/v0/cart/items", addItemRequest{ProductID: 1})

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v0/checkout/payment", payment("4242424242424242")).StatusCode)

	incomplete := shipping()
	incomplete.Email = ""
	resp := s.do(t, http.MethodPost, "/api/v0/checkout/shipping", incomplete)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"email"}, decode[errorResponse](t, resp).Fields)

	resp = s.do(t, http.MethodPost, "/api/v0/checkout/shipping", shipping())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment", decode[map[string]any](t, resp)["step"])

	resp = s.do(t, http.MethodPost, "/api/v0/checkout/payment", payment(checkout.DeclinedTestCard))
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.False(t, s.cart.IsEmpty())

	resp = s.do(t, http.MethodPost, "/api/v0/checkout/payment", payment("4242 4242 4242 4242"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decode[models.Order](t, resp)
	assert.Equal(t, "161.99", placed.Total.StringFixed(2))
	assert.Equal(t, "************4242", placed.Payment.CardNumber)
	assert.True(t, s.cart.IsEmpty())

	resp = s.do(t, http.MethodGet, "/api/v0/orders/last", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, placed.ID, decode[models.Order](t, resp).ID)

	state := decode[map[string]any](t, s.do(t, http.MethodGet, "/api/v0/checkout", nil))
	assert.Equal(t, "confirmed", state["step"])

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v0/checkout/back", nil).StatusCode)

	state = decode[map[string]any](t, s.do(t, http.MethodPost, "/api/v0/checkout/reset", nil))
	assert.Equal(t, "shipping", state["step"])
}

func TestImportExport(t *testing.T) {
	s := newTestServer(t)

	var archive bytes.Buffer
	w, err := compress.NewWriter(compress.Zip, &archive, "products.csv")
	require.NoError(t, err)
	_, err = io.WriteString(w, "id,name,category,price\n100,Standing Desk,Home & Garden,350\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v0/products/import?archiveType=zip", &archive)
	require.NoError(t, err)
	req.Header.Set("Content-Encoding", compress.Zip)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decode[models.ProcessResponse](t, resp)
	assert.Equal(t, 16, stats.TotalItems)
	assert.Equal(t, 6, stats.TotalCategories)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v0/products/100", nil).StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v0/products/export?archiveType=tar", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-tar", resp.Header.Get("Content-Type"))

	r, err := compress.NewTarReader(resp.Body)
	require.NoError(t, err)
	exported, err := catalog.ReadCSV(r)
	require.NoError(t, err)
	assert.Len(t, exported, 16)
}

func TestImportRejectsBadCSV(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v0/products/import", strings.NewReader("name\nDesk\n"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOversizedImportIsRejected(t *testing.T) {
	h := &BaseController{log: logger.Nop()}
	tooLarge := &http.MaxBytesError{Limit: 16}

	rec := httptest.NewRecorder()
	_, err := catalog.ReadCSV(http.MaxBytesReader(rec, io.NopCloser(strings.NewReader(strings.Repeat("id,", 16))), 16))
	require.ErrorAs(t, err, &tooLarge)

	h.writeError(rec, fmt.Errorf("%w: %w", errBadRequest, err))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/v0/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
