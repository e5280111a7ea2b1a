package models

import "time"

// Product represents a catalog product. Deletion is modeled by flipping
// IsActive to false; rows are never physically removed, so default read
// paths must filter on is_active.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Description   string    `json:"description" gorm:"type:varchar(2000)"`
	Category      string    `json:"category" gorm:"type:varchar(100);not null;index:idx_products_category_active,priority:1"`
	Brand         string    `json:"brand" gorm:"type:varchar(100);not null;index:idx_products_brand_active,priority:1"`
	Price         float64   `json:"price" gorm:"not null;check:price >= 0;index:idx_products_price_active,priority:1"`
	StockQuantity int       `json:"stock_quantity" gorm:"not null;default:0;check:stock_quantity >= 0;index"`
	SKU           string    `json:"sku" gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	ImageURL      string    `json:"image_url" gorm:"type:varchar(500)"`
	// No gorm default tag on IsActive: GORM skips zero-valued fields that
	// carry one, which would turn an explicit false into true on insert.
	IsActive    bool      `json:"is_active" gorm:"not null;index;index:idx_products_category_active,priority:2;index:idx_products_brand_active,priority:2;index:idx_products_price_active,priority:2"`
	Rating      float64   `json:"rating" gorm:"not null;default:0;check:rating >= 0 AND rating <= 5;index"`
	ReviewCount int       `json:"review_count" gorm:"not null;default:0;check:review_count >= 0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsInStock reports whether the product has any stock left.
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// ProductResponse is the transport representation of a product.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	SKU           string    `json:"sku"`
	ImageURL      string    `json:"image_url"`
	IsActive      bool      `json:"is_active"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	InStock       bool      `json:"in_stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToResponse converts a product into its transport representation.
func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Brand:         p.Brand,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		SKU:           p.SKU,
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		InStock:       p.IsInStock(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Pagination describes the window of a paginated listing.
type Pagination struct {
	CurrentPage     int   `json:"current_page"`
	PerPage         int   `json:"per_page"`
	TotalItems      int64 `json:"total_items"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// ProductListResponse is the payload of a paginated product listing.
type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// PriceRange holds the minimum and maximum price over active products.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions lists the distinct values callers can filter on.
type FilterOptions struct {
	Categories []string   `json:"categories"`
	Brands     []string   `json:"brands"`
	PriceRange PriceRange `json:"price_range"`
}
