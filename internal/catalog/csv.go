package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/shopspring/decimal"
)

// CSVHeader is the column layout written by WriteCSV. ReadCSV accepts the
// columns in any order; id, name, category and price are required.
// List columns (images, features, tags) join their values with ListSeparator.
var CSVHeader = []string{
	"id", "name", "description", "category", "price", "sale_price",
	"image", "in_stock", "rating", "reviews", "featured", "created_at",
	"images", "features", "tags",
}

// ListSeparator joins the values of a list column in one CSV cell.
const ListSeparator = "|"

var requiredColumns = []string{"id", "name", "category", "price"}

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ReadCSV decodes products from CSV with a header row.
func ReadCSV(r io.Reader) ([]models.Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Product{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	products := []models.Product{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		product, err := decodeRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		products = append(products, product)
	}

	return products, nil
}

func decodeRecord(record []string, cols map[string]int) (models.Product, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var p models.Product
	var err error

	if p.ID, err = strconv.Atoi(field("id")); err != nil {
		return p, fmt.Errorf("invalid id %q: %w", field("id"), err)
	}
	p.Name = field("name")
	p.Description = field("description")
	p.Category = field("category")
	p.Image = field("image")
	p.Images = splitList(field("images"))
	p.Features = splitList(field("features"))
	p.Tags = splitList(field("tags"))

	if p.Price, err = decimal.NewFromString(field("price")); err != nil {
		return p, fmt.Errorf("invalid price %q: %w", field("price"), err)
	}
	if v := field("sale_price"); v != "" {
		sale, err := decimal.NewFromString(v)
		if err != nil {
			return p, fmt.Errorf("invalid sale_price %q: %w", v, err)
		}
		p.SalePrice = &sale
	}

	if v := field("in_stock"); v != "" {
		if p.InStock, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid in_stock %q: %w", v, err)
		}
	}
	if v := field("featured"); v != "" {
		if p.Featured, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid featured %q: %w", v, err)
		}
	}
	if v := field("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("invalid rating %q: %w", v, err)
		}
		p.Rating = &rating
	}
	if v := field("reviews"); v != "" {
		reviews, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid reviews %q: %w", v, err)
		}
		p.Reviews = &reviews
	}
	if v := field("created_at"); v != "" {
		created, err := parseDate(v)
		if err != nil {
			return p, fmt.Errorf("invalid created_at %q: %w", v, err)
		}
		p.CreatedAt = &created
	}

	return p, nil
}

// splitList is the inverse of joining with ListSeparator; blank entries are
// dropped and an empty cell yields nil.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ListSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

// WriteCSV encodes products with CSVHeader.
func WriteCSV(w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, p := range products {
		record := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Description,
			p.Category,
			p.Price.String(),
			"",
			p.Image,
			strconv.FormatBool(p.InStock),
			"",
			"",
			strconv.FormatBool(p.Featured),
			"",
			strings.Join(p.Images, ListSeparator),
			strings.Join(p.Features, ListSeparator),
			strings.Join(p.Tags, ListSeparator),
		}
		if p.SalePrice != nil {
			record[5] = p.SalePrice.String()
		}
		if p.Rating != nil {
			record[8] = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
		}
		if p.Reviews != nil {
			record[9] = strconv.Itoa(*p.Reviews)
		}
		if p.CreatedAt != nil {
			record[11] = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Stats summarizes a catalog: item count, distinct categories and the sum of
// list prices.
func Stats(products []models.Product) *models.ProcessResponse {
	categories := make(map[string]struct{})
	total := decimal.Zero
	for _, p := range products {
		categories[p.Category] = struct{}{}
		total = total.Add(p.Price)
	}
	return &models.ProcessResponse{
		TotalItems:      len(products),
		TotalCategories: len(categories),
		TotalPrice:      total,
	}
}
