package repositories

import (
	"catalog/internal/models"
)

// ProductFilters is the validated predicate set of a product listing.
type ProductFilters struct {
	Page      int
	Limit     int
	Category  string
	Brand     string
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	SortBy    string
	SortOrder string
	IsActive  bool
}

// Offset computes the row offset of the requested page.
func (f ProductFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	FindWithFilters(filters ProductFilters) ([]models.Product, int64, error)
	FindByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(id string, patch map[string]interface{}) (*models.Product, error)
	SoftDelete(id string) (bool, error)
	GetFilterOptions() (*models.FilterOptions, error)
	BulkCreate(products []models.Product) error
	IsSKUExists(sku, excludeID string) (bool, error)
}
