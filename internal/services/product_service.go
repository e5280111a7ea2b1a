package services

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"
)

// ProductEventPublisher publishes product lifecycle events to the message
// broker. Implemented by pkg/rabbitmq.Client.
type ProductEventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events ProductEventPublisher
}

// NewProductService creates a new ProductService. events may be nil when no
// broker is configured.
func NewProductService(repo repositories.ProductRepository, events ProductEventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts runs a filtered, paginated listing and computes the
// pagination metadata.
func (s *ProductService) ListProducts(filter *validation.ListProductsFilter) (*models.ProductListResponse, error) {
	products, total, err := s.repo.FindWithFilters(repositories.ProductFilters{
		Page:      filter.Page,
		Limit:     filter.Limit,
		Category:  filter.Category,
		Brand:     filter.Brand,
		MinPrice:  filter.MinPrice,
		MaxPrice:  filter.MaxPrice,
		Search:    filter.Search,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		IsActive:  filter.IsActive,
	})
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	responses := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, products[i].ToResponse())
	}
	return &models.ProductListResponse{
		Products: responses,
		Pagination: models.Pagination{
			CurrentPage:     filter.Page,
			PerPage:         filter.Limit,
			TotalItems:      total,
			TotalPages:      totalPages,
			HasNextPage:     filter.Page < totalPages,
			HasPreviousPage: filter.Page > 1,
		},
	}, nil
}

// SearchProducts runs a free-text search over name, description, and brand.
func (s *ProductService) SearchProducts(query string, filter *validation.ListProductsFilter) (*models.ProductListResponse, error) {
	filter.Search = query
	return s.ListProducts(filter)
}

// GetProduct retrieves a single active product.
func (s *ProductService) GetProduct(id string) (*models.ProductResponse, error) {
	product, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	if product == nil {
		return nil, apperrors.NewNotFound("product", id)
	}
	response := product.ToResponse()
	return &response, nil
}

// CreateProduct creates a new product after a proactive SKU uniqueness
// check. The storage unique constraint remains the authoritative backstop
// for concurrent creates with the same SKU.
func (s *ProductService) CreateProduct(req *validation.CreateProductRequest) (*models.ProductResponse, error) {
	exists, err := s.repo.IsSKUExists(req.SKU, "")
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	if exists {
		return nil, apperrors.NewBadRequest(
			fmt.Sprintf("A product with SKU '%s' already exists", req.SKU),
			map[string]interface{}{"sku": req.SKU},
		)
	}

	product := req.ToProduct()
	if err := s.repo.Create(&product); err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	s.publish("product.created", map[string]interface{}{"id": product.ID, "sku": product.SKU})
	response := product.ToResponse()
	return &response, nil
}

// UpdateProduct applies a partial patch. The SKU uniqueness re-check only
// runs when the patch carries a SKU different from the current one.
func (s *ProductService) UpdateProduct(id string, req *validation.UpdateProductRequest) (*models.ProductResponse, error) {
	current, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	if current == nil {
		return nil, apperrors.NewNotFound("product", id)
	}

	if req.SKU != nil && *req.SKU != current.SKU {
		exists, err := s.repo.IsSKUExists(*req.SKU, id)
		if err != nil {
			return nil, apperrors.WrapInternal(err)
		}
		if exists {
			return nil, apperrors.NewBadRequest(
				fmt.Sprintf("A product with SKU '%s' already exists", *req.SKU),
				map[string]interface{}{"sku": *req.SKU},
			)
		}
	}

	updated, err := s.repo.Update(id, req.Patch())
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFound("product", id)
	}
	s.publish("product.updated", map[string]interface{}{"id": updated.ID, "sku": updated.SKU})
	response := updated.ToResponse()
	return &response, nil
}

// DeleteProduct soft-deletes a product: the row survives with
// is_active=false and disappears from default read paths.
func (s *ProductService) DeleteProduct(id string) error {
	current, err := s.repo.FindByID(id)
	if err != nil {
		return apperrors.WrapInternal(err)
	}
	if current == nil {
		return apperrors.NewNotFound("product", id)
	}
	affected, err := s.repo.SoftDelete(id)
	if err != nil {
		return apperrors.WrapInternal(err)
	}
	if !affected {
		return apperrors.NewNotFound("product", id)
	}
	s.publish("product.deleted", map[string]interface{}{"id": id})
	return nil
}

// GetFilterOptions returns the distinct categories, brands, and price range
// of active products.
func (s *ProductService) GetFilterOptions() (*models.FilterOptions, error) {
	options, err := s.repo.GetFilterOptions()
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}
	return options, nil
}

var sampleBrands = []struct {
	Name string
	Code string
}{
	{"Acme", "ACME"},
	{"Northwind", "NWND"},
	{"Zenith", "ZNTH"},
	{"Vortex", "VRTX"},
	{"Lumina", "LUMA"},
	{"Orbit", "ORBT"},
}

var sampleCategories = []struct {
	Name string
	Code string
}{
	{"Tools", "TOOL"},
	{"Electronics", "ELEC"},
	{"Home", "HOME"},
	{"Sports", "SPRT"},
	{"Office", "OFFC"},
}

var sampleNouns = []string{"Widget", "Gadget", "Kit", "Set", "Station", "Module", "Case", "Stand", "Hub", "Pack"}

// GenerateSampleProducts bulk-creates count sample products. Each SKU
// embeds brand, category, a generation timestamp, and a zero-padded
// sequence number, so batches never collide with each other or with
// earlier batches.
func (s *ProductService) GenerateSampleProducts(count int) (int, error) {
	ts := time.Now().UnixNano()
	products := make([]models.Product, 0, count)
	for i := 0; i < count; i++ {
		brand := sampleBrands[i%len(sampleBrands)]
		category := sampleCategories[i%len(sampleCategories)]
		noun := sampleNouns[i%len(sampleNouns)]
		sku := fmt.Sprintf("%s-%s-%d-%04d", brand.Code, category.Code, ts, i+1)
		products = append(products, models.Product{
			Name:          fmt.Sprintf("%s %s %d", brand.Name, noun, i+1),
			Description:   fmt.Sprintf("Sample %s product from %s", strings.ToLower(category.Name), brand.Name),
			Category:      category.Name,
			Brand:         brand.Name,
			Price:         round2(1 + rand.Float64()*998),
			StockQuantity: rand.Intn(500),
			SKU:           sku,
			ImageURL:      fmt.Sprintf("https://images.example.com/products/%s.jpg", strings.ToLower(sku)),
			IsActive:      true,
			Rating:        round2(rand.Float64() * 5),
			ReviewCount:   rand.Intn(1000),
		})
	}
	if err := s.repo.BulkCreate(products); err != nil {
		return 0, apperrors.WrapInternal(err)
	}
	s.publish("product.generated", map[string]interface{}{"count": count})
	return len(products), nil
}

// publish sends a product event when a broker is configured. Event delivery
// is best-effort: a broker failure never fails the write that triggered it.
func (s *ProductService) publish(event string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", event, err)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
