// Package repository defines the catalog data source consumed by the
// storefront and provides the in-memory mock catalog.
//
// Implementations do not cache: every call goes to the backend, and
// overlapping identical calls are not coalesced.
package repository

import (
	"context"

	"github.com/drstein77/shopflow/internal/models"
)

// ProductRepository serves catalog products.
type ProductRepository interface {
	// ListProducts fails with a FetchError when the backend is unavailable.
	ListProducts(ctx context.Context) ([]models.Product, error)
	// GetProduct fails with a NotFoundError when no product has the id.
	GetProduct(ctx context.Context, id int) (models.Product, error)
}

// CategoryRepository serves product categories with their product counts.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (models.Category, error)
}

// Searcher runs a free-text product search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// Repository is the full catalog contract.
type Repository interface {
	ProductRepository
	CategoryRepository
	Searcher
}

// Importer replaces or extends the catalog from an import.
type Importer interface {
	InsertProducts(ctx context.Context, products []models.Product) (*models.ProcessResponse, error)
}
