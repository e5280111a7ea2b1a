package repositories

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog/internal/apperrors"
	"catalog/internal/models"
)

var errDuplicateSKU = errors.New("duplicate sku")

// MockProductRepository is an in-memory implementation of
// ProductRepository. It backs local development when no database is
// configured and mirrors the GORM repository's filtering semantics.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// FindWithFilters applies the same predicate, sort, and pagination rules as
// the GORM repository, in memory.
func (r *MockProductRepository) FindWithFilters(filters ProductFilters) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matchesFilters(p, filters) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, filters.SortBy, filters.SortOrder)

	total := int64(len(matched))
	start := filters.Offset()
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + filters.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// FindByID returns an active product by its ID, or nil when absent.
func (r *MockProductRepository) FindByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok || !product.IsActive {
		return nil, nil
	}
	return &product, nil
}

// Create adds a new product, enforcing the SKU uniqueness the database
// would.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(product)
}

func (r *MockProductRepository) insert(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for _, existing := range r.products {
		if existing.SKU == product.SKU {
			return apperrors.NewDatabase(apperrors.DBUniqueViolation, "create product", errDuplicateSKU)
		}
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update applies a partial patch to an existing product.
func (r *MockProductRepository) Update(id string, patch map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	applyPatch(&product, patch)
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return &product, nil
}

// SoftDelete marks a product inactive.
func (r *MockProductRepository) SoftDelete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || !product.IsActive {
		return false, nil
	}
	product.IsActive = false
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return true, nil
}

// GetFilterOptions aggregates distinct categories, brands, and the price
// range over active products.
func (r *MockProductRepository) GetFilterOptions() (*models.FilterOptions, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := map[string]struct{}{}
	brands := map[string]struct{}{}
	options := &models.FilterOptions{Categories: []string{}, Brands: []string{}}
	first := true
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		categories[p.Category] = struct{}{}
		brands[p.Brand] = struct{}{}
		if first || p.Price < options.PriceRange.Min {
			options.PriceRange.Min = p.Price
		}
		if first || p.Price > options.PriceRange.Max {
			options.PriceRange.Max = p.Price
		}
		first = false
	}
	for c := range categories {
		options.Categories = append(options.Categories, c)
	}
	for b := range brands {
		options.Brands = append(options.Brands, b)
	}
	sort.Strings(options.Categories)
	sort.Strings(options.Brands)
	return options, nil
}

// BulkCreate inserts products one by one; batching is a database concern.
func (r *MockProductRepository) BulkCreate(products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range products {
		if err := r.insert(&products[i]); err != nil {
			return err
		}
	}
	return nil
}

// IsSKUExists reports whether a SKU is taken, optionally excluding one ID.
func (r *MockProductRepository) IsSKUExists(sku, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.SKU == sku && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func matchesFilters(p models.Product, filters ProductFilters) bool {
	if p.IsActive != filters.IsActive {
		return false
	}
	if filters.Category != "" && p.Category != filters.Category {
		return false
	}
	if filters.Brand != "" && p.Brand != filters.Brand {
		return false
	}
	if filters.MinPrice != nil && p.Price < *filters.MinPrice {
		return false
	}
	if filters.MaxPrice != nil && p.Price > *filters.MaxPrice {
		return false
	}
	if filters.Search != "" {
		term := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Brand), term) {
			return false
		}
	}
	return true
}

func sortProducts(products []models.Product, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "DESC")
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		var less, equal bool
		switch sortBy {
		case "name":
			less, equal = a.Name < b.Name, a.Name == b.Name
		case "price":
			less, equal = a.Price < b.Price, a.Price == b.Price
		case "rating":
			less, equal = a.Rating < b.Rating, a.Rating == b.Rating
		case "category":
			less, equal = a.Category < b.Category, a.Category == b.Category
		case "brand":
			less, equal = a.Brand < b.Brand, a.Brand == b.Brand
		case "stock_quantity":
			less, equal = a.StockQuantity < b.StockQuantity, a.StockQuantity == b.StockQuantity
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			// Deterministic tiebreak, always ascending.
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

func applyPatch(p *models.Product, patch map[string]interface{}) {
	for column, value := range patch {
		switch column {
		case "name":
			p.Name = value.(string)
		case "description":
			p.Description = value.(string)
		case "category":
			p.Category = value.(string)
		case "brand":
			p.Brand = value.(string)
		case "price":
			p.Price = value.(float64)
		case "stock_quantity":
			p.StockQuantity = value.(int)
		case "sku":
			p.SKU = value.(string)
		case "image_url":
			p.ImageURL = value.(string)
		case "is_active":
			p.IsActive = value.(bool)
		case "rating":
			p.Rating = value.(float64)
		case "review_count":
			p.ReviewCount = value.(int)
		}
	}
}
