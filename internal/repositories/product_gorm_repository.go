package repositories

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog/internal/apperrors"
	"catalog/internal/models"
)

// bulkCreateBatchSize bounds the row count of a single insert round trip.
const bulkCreateBatchSize = 50

// sortColumns maps the externally exposed sort fields to their columns.
// Validation rejects anything outside this set; the map is the storage-side
// guard in case a caller bypasses validation.
var sortColumns = map[string]string{
	"name":           "name",
	"price":          "price",
	"rating":         "rating",
	"created_at":     "created_at",
	"category":       "category",
	"brand":          "brand",
	"stock_quantity": "stock_quantity",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// FindWithFilters runs the filtered listing query: one exact count and one
// page fetch, both over the same predicate set. The secondary sort on id
// keeps pagination stable when the primary sort key has duplicates.
func (r *GORMProductRepository) FindWithFilters(filters ProductFilters) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("is_active = ?", filters.IsActive)

	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Brand != "" {
		query = query.Where("brand = ?", filters.Brand)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.classifyError("count products", err)
	}

	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(filters.SortOrder, "DESC") {
		direction = "DESC"
	}
	order := column + " " + direction + ", id ASC"

	var products []models.Product
	err := query.
		Order(order).
		Offset(filters.Offset()).
		Limit(filters.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, r.classifyError("list products", err)
	}
	return products, total, nil
}

// FindByID retrieves a single active product, or nil when it is missing or
// soft-deleted.
func (r *GORMProductRepository) FindByID(id string) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.classifyError("get product", err)
	}
	return &product, nil
}

// Create inserts a new product, assigning an identifier when absent.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return r.classifyError("create product", err)
	}
	return nil
}

// Update applies a partial patch and returns the resulting row, or nil when
// no row matched the identifier.
func (r *GORMProductRepository) Update(id string, patch map[string]interface{}) (*models.Product, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return nil, r.classifyError("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, r.classifyError("reload product", err)
	}
	return &product, nil
}

// SoftDelete marks a product inactive and reports whether a row was
// affected. The row itself is never removed.
func (r *GORMProductRepository) SoftDelete(id string) (bool, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, r.classifyError("delete product", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetFilterOptions runs three aggregate queries over active products:
// distinct categories, distinct brands, and the price range.
func (r *GORMProductRepository) GetFilterOptions() (*models.FilterOptions, error) {
	options := &models.FilterOptions{
		Categories: []string{},
		Brands:     []string{},
	}

	err := r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &options.Categories).Error
	if err != nil {
		return nil, r.classifyError("list categories", err)
	}

	err = r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &options.Brands).Error
	if err != nil {
		return nil, r.classifyError("list brands", err)
	}

	var priceRange struct {
		Min float64
		Max float64
	}
	err = r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(MIN(price), 0) AS min, COALESCE(MAX(price), 0) AS max").
		Scan(&priceRange).Error
	if err != nil {
		return nil, r.classifyError("price range", err)
	}
	options.PriceRange = models.PriceRange{Min: priceRange.Min, Max: priceRange.Max}
	return options, nil
}

// BulkCreate inserts products in batches to bound the size of any single
// round trip.
func (r *GORMProductRepository) BulkCreate(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.New().String()
		}
	}
	if err := r.db.CreateInBatches(products, bulkCreateBatchSize).Error; err != nil {
		return r.classifyError("bulk create products", err)
	}
	return nil
}

// IsSKUExists reports whether a SKU is already taken, regardless of active
// status. excludeID lets an update check uniqueness against all other rows.
func (r *GORMProductRepository) IsSKUExists(sku, excludeID string) (bool, error) {
	query := r.db.Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, r.classifyError("check sku", err)
	}
	return count > 0, nil
}

// classifyError is the single place where store error codes and messages
// are interpreted. Everything above the repository works with the typed
// error kinds only.
func (r *GORMProductRepository) classifyError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.NewDatabase(apperrors.DBUniqueViolation, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.NewDatabase(apperrors.DBForeignKeyViolation, op, err)
	case errors.Is(err, gorm.ErrInvalidDB):
		return apperrors.NewDatabase(apperrors.DBConnection, op, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint"):
		return apperrors.NewDatabase(apperrors.DBUniqueViolation, op, err)
	case strings.Contains(msg, "foreign key"):
		return apperrors.NewDatabase(apperrors.DBForeignKeyViolation, op, err)
	case strings.Contains(msg, "not null") || strings.Contains(msg, "not-null"):
		return apperrors.NewDatabase(apperrors.DBNotNullViolation, op, err)
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "broken pipe"):
		return apperrors.NewDatabase(apperrors.DBConnection, op, err)
	}
	return apperrors.NewDatabase(apperrors.DBGeneric, op, err)
}
