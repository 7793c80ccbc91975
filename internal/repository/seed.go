package repository

import (
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/shopspring/decimal"
)

// SeedCategories returns the demo category descriptors.
func SeedCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Electronics", Description: "Gadgets and devices", Icon: "Smartphone"},
		{ID: 2, Name: "Clothing", Description: "Apparel for every season", Icon: "Shirt"},
		{ID: 3, Name: "Home & Garden", Description: "Furniture, decor and tools", Icon: "Home"},
		{ID: 4, Name: "Sports", Description: "Fitness and outdoor gear", Icon: "Dumbbell"},
		{ID: 5, Name: "Books", Description: "Fiction and non-fiction", Icon: "BookOpen"},
		{ID: 6, Name: "Beauty", Description: "Skincare and cosmetics", Icon: "Sparkles"},
	}
}

// SeedProducts returns the demo catalog.
func SeedProducts() []models.Product {
	return []models.Product{
		seed(1, "Wireless Headphones", "Over-ear headphones with active noise cancellation and 30h battery.", "Electronics", "199.99", "149.99", true, 4.8, 1247, true, "2024-03-12"),
		seed(2, "Smart Watch", "Fitness tracking, heart-rate monitor and GPS in a slim case.", "Electronics", "299.99", "", true, 4.6, 892, true, "2024-04-02"),
		seed(3, "Bluetooth Speaker", "Portable waterproof speaker with deep bass.", "Electronics", "79.99", "59.99", false, 4.4, 431, false, "2023-11-18"),
		seed(4, "Organic Cotton T-Shirt", "Soft crew-neck tee made from organic cotton.", "Clothing", "29.99", "", true, 4.3, 318, false, "2024-02-20"),
		seed(5, "Denim Jacket", "Classic fit jacket in washed denim.", "Clothing", "89.99", "69.99", true, 4.5, 204, true, ""),
		seed(6, "Running Shoes", "Lightweight trainers with responsive cushioning.", "Sports", "129.99", "", true, 4.7, 1563, true, "2024-05-06"),
		seed(7, "Yoga Mat", "Non-slip 6mm mat with carrying strap.", "Sports", "39.99", "29.99", true, 0, 0, false, "2024-01-15"),
		seed(8, "Adjustable Dumbbells", "Pair of dumbbells adjustable from 2 to 24 kg.", "Sports", "249.99", "", false, 4.6, 377, false, "2023-09-30"),
		seed(9, "Ceramic Plant Pot", "Hand-glazed pot with drainage tray.", "Home & Garden", "24.99", "", true, 4.2, 96, false, "2023-12-01"),
		seed(10, "LED Desk Lamp", "Dimmable lamp with USB charging port.", "Home & Garden", "49.99", "39.99", true, 4.5, 512, false, "2024-03-28"),
		seed(11, "Coffee Maker", "Programmable drip coffee maker, 12 cups.", "Home & Garden", "89.99", "", true, 4.1, 689, false, ""),
		seed(12, "The Pragmatic Programmer", "Classic guide to software craftsmanship.", "Books", "44.99", "", true, 4.9, 2210, true, "2023-10-10"),
		seed(13, "Cookbook Essentials", "200 everyday recipes with step-by-step photos.", "Books", "27.99", "19.99", true, 4.4, 143, false, "2024-04-21"),
		seed(14, "Vitamin C Serum", "Brightening serum with hyaluronic acid.", "Beauty", "34.99", "", true, 4.3, 731, false, "2024-02-08"),
		seed(15, "Hair Dryer", "Ionic dryer with three heat settings.", "Beauty", "59.99", "", false, 0, 0, false, "2023-08-14"),
	}
}

func seed(id int, name, description, category, price, sale string, inStock bool, rating float64, reviews int, featured bool, created string) models.Product {
	p := models.Product{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Price:       decimal.RequireFromString(price),
		Image:       "/images/products/" + slugify(name) + ".jpg",
		InStock:     inStock,
		Featured:    featured,
	}
	p.Images = []string{p.Image}
	if sale != "" {
		v := decimal.RequireFromString(sale)
		p.SalePrice = &v
	}
	if rating > 0 {
		p.Rating = &rating
		p.Reviews = &reviews
	}
	if created != "" {
		t, err := time.Parse(time.DateOnly, created)
		if err == nil {
			p.CreatedAt = &t
		}
	}
	return p
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
			dash = false
		case !dash && len(out) > 0:
			out = append(out, '-')
			dash = true
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	return string(out)
}
