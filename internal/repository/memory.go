package repository

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/drstein77/shopflow/internal/catalog"
	"github.com/drstein77/shopflow/internal/models"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Debug(string, ...zap.Field)
}

// Memory is the mock catalog held in process memory.
type Memory struct {
	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category // descriptors, counts are derived
	failure    error

	log Log
}

// NewMemory creates a Memory catalog holding products and category descriptors.
func NewMemory(products []models.Product, categories []models.Category, log Log) *Memory {
	m := &Memory{
		products:   slices.Clone(products),
		categories: slices.Clone(categories),
		log:        log,
	}
	m.registerCategories(products)
	return m
}

// NewSeededMemory creates a Memory catalog with the built-in demo data.
func NewSeededMemory(log Log) *Memory {
	return NewMemory(SeedProducts(), SeedCategories(), log)
}

// SetFailure makes every read fail with a FetchError wrapping err until it is
// called again with nil.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *Memory) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failure != nil {
		return nil, NewFetchError("ListProducts", m.failure)
	}
	m.log.Debug("listing products", zap.Int("count", len(m.products)))
	return slices.Clone(m.products), nil
}

func (m *Memory) GetProduct(_ context.Context, id int) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failure != nil {
		return models.Product{}, NewFetchError("GetProduct", m.failure)
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, &NotFoundError{Kind: "product", ID: id}
}

// Search filters ListProducts with the catalog search stage.
func (m *Memory) Search(ctx context.Context, query string) ([]models.Product, error) {
	products, err := m.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(products, query), nil
}

// ListCategories returns the categories ordered by name with product counts.
func (m *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failure != nil {
		return nil, NewFetchError("ListCategories", m.failure)
	}
	out := m.countedCategories()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetCategory(_ context.Context, id int) (models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failure != nil {
		return models.Category{}, NewFetchError("GetCategory", m.failure)
	}
	for _, c := range m.countedCategories() {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, &NotFoundError{Kind: "category", ID: id}
}

// InsertProducts upserts products by id and returns the catalog statistics.
func (m *Memory) InsertProducts(_ context.Context, products []models.Product) (*models.ProcessResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, NewFetchError("InsertProducts", m.failure)
	}

	index := make(map[int]int, len(m.products))
	for i, p := range m.products {
		index[p.ID] = i
	}
	for _, p := range products {
		if i, ok := index[p.ID]; ok {
			m.products[i] = p
			continue
		}
		index[p.ID] = len(m.products)
		m.products = append(m.products, p)
	}
	m.registerCategories(products)

	m.log.Info("Products imported", zap.Int("received", len(products)), zap.Int("total", len(m.products)))
	return catalog.Stats(m.products), nil
}

// registerCategories adds a descriptor for every category name not yet known.
func (m *Memory) registerCategories(products []models.Product) {
	known := make(map[string]struct{}, len(m.categories))
	next := 0
	for _, c := range m.categories {
		known[c.Name] = struct{}{}
		next = max(next, c.ID)
	}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := known[p.Category]; ok {
			continue
		}
		next++
		known[p.Category] = struct{}{}
		m.categories = append(m.categories, models.Category{ID: next, Name: p.Category})
	}
}

func (m *Memory) countedCategories() []models.Category {
	counts := make(map[string]int)
	for _, p := range m.products {
		counts[p.Category]++
	}
	out := make([]models.Category, len(m.categories))
	for i, c := range m.categories {
		c.Count = counts[c.Name]
		out[i] = c
	}
	return out
}
