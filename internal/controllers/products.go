package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/drstein77/shopflow/internal/catalog"
	"github.com/drstein77/shopflow/internal/compress"
	"github.com/drstein77/shopflow/internal/middleware"
	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type listResponse struct {
	catalog.Page
	ActiveFilters int             `json:"activeFilters"`
	Sort          catalog.SortKey `json:"sort"`
}

// listProducts serves the filtered, sorted and paginated product listing.
func (h *BaseController) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := parseCriteria(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page := 1
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			h.writeError(w, fmt.Errorf("%w: page: %v", errBadRequest, err))
			return
		}
	}

	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	key := catalog.ParseSortKey(q.Get("sort"))
	filtered := catalog.Apply(products, criteria, q.Get("search"), key)

	h.writeJSON(w, http.StatusOK, listResponse{
		Page:          catalog.Paginate(filtered, page, catalog.PageSize),
		ActiveFilters: criteria.ActiveCount(),
		Sort:          key,
	})
}

func parseCriteria(q url.Values) (models.FilterCriteria, error) {
	var (
		c   models.FilterCriteria
		err error
	)
	c.Category = q.Get("category")
	if c.MinPrice, err = decimalParam(q, "minPrice"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = decimalParam(q, "maxPrice"); err != nil {
		return c, err
	}
	if c.OnSale, err = boolParam(q, "onSale"); err != nil {
		return c, err
	}
	if c.InStock, err = boolParam(q, "inStock"); err != nil {
		return c, err
	}
	if c.FreeShipping, err = boolParam(q, "freeShipping"); err != nil {
		return c, err
	}
	return c, nil
}

func decimalParam(q url.Values, name string) (*decimal.Decimal, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return &d, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return b, nil
}

func (h *BaseController) featuredProducts(w http.ResponseWriter, r *http.Request) {
	h.productView(w, r, catalog.Featured)
}

func (h *BaseController) saleProducts(w http.ResponseWriter, r *http.Request) {
	h.productView(w, r, catalog.OnSale)
}

func (h *BaseController) productView(w http.ResponseWriter, r *http.Request, view func([]models.Product) []models.Product) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view(products))
}

func (h *BaseController) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *BaseController) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, categories)
}

func (h *BaseController) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, category)
}

// importProducts reads a CSV catalog, optionally inside a zip or tar
// archive, and upserts it.
func (h *BaseController) importProducts(w http.ResponseWriter, r *http.Request) {
	importer, ok := h.catalog.(repository.Importer)
	if !ok {
		http.Error(w, "catalog does not accept imports", http.StatusNotImplemented)
		return
	}
	defer r.Body.Close()

	products, err := catalog.ReadCSV(r.Body)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	response, err := importer.InsertProducts(r.Context(), products)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("Catalog imported", zap.Int("products", len(products)))
	h.writeJSON(w, http.StatusOK, response)
}

// exportProducts streams the catalog as products.csv packed into the
// requested archive type.
func (h *BaseController) exportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	archiveType := middleware.ArchiveType(r.Context())
	contentType := "application/zip"
	if archiveType == compress.Tar {
		contentType = "application/x-tar"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="products.%s"`, archiveType))

	aw, err := compress.NewWriter(archiveType, w, "products.csv")
	if err != nil {
		h.log.Error("Failed to create archive", zap.Error(err))
		return
	}
	if err := catalog.WriteCSV(aw, products); err != nil {
		h.log.Error("Failed to write csv", zap.Error(err))
	}
	if err := aw.Close(); err != nil {
		h.log.Error("Failed to close archive", zap.Error(err))
	}
}
