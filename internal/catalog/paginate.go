package catalog

import "github.com/drstein77/shopflow/internal/models"

// PageSize is the number of products on one listing page.
const PageSize = 12

// Page is one slice of a listing.
type Page struct {
	Items      []models.Product `json:"items"`
	Number     int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalItems int              `json:"totalItems"`
}

// Paginate cuts one page out of products. Page numbers below 1 read as 1; a
// page past the end comes back with no items. A non-positive size uses PageSize.
func Paginate(products []models.Product, page, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(products)
	result := Page{
		Items:      []models.Product{},
		Number:     page,
		TotalPages: (total + size - 1) / size,
		TotalItems: total,
	}

	// compare page numbers before multiplying so huge pages cannot overflow
	if page > result.TotalPages {
		return result
	}
	start := (page - 1) * size
	end := min(start+size, total)
	result.Items = append(result.Items, products[start:end]...)
	return result
}
