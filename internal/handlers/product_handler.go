package handlers

import (
	"catalog/internal/middleware"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// defaultGenerateCount applies when POST /products/generate omits count.
const defaultGenerateCount = 10

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Static
// subpaths come before /:id so they are not swallowed by the parameter
// route.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, adminOptional, adminRequired fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/search", adminOptional, h.HandleSearchProducts)
	productRoutes.Get("/filters/options", h.HandleGetFilterOptions)
	productRoutes.Post("/generate", adminRequired, h.HandleGenerateProducts)
	productRoutes.Get("/", adminOptional, h.HandleListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts lists products with filtering and pagination. Only
// admin callers may override is_active to inspect soft-deleted records.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := c.Queries()
	if !middleware.IsAdmin(c) {
		delete(query, "is_active")
	}
	filter, err := validation.ParseListFilter(query)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.ListProducts(filter)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// HandleSearchProducts runs a free-text search over name, description, and
// brand.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	q, err := validation.ValidateSearchQuery(c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}

	query := c.Queries()
	delete(query, "q")
	delete(query, "search")
	if !middleware.IsAdmin(c) {
		delete(query, "is_active")
	}
	filter, err := validation.ParseListFilter(query)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.SearchProducts(q, filter)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	req, err := validation.ValidateCreateProduct(c.Body())
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.CreateProduct(req)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, product)
}

// HandleUpdateProduct applies a partial patch to an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	req, err := validation.ValidateUpdateProduct(c.Body())
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.UpdateProduct(c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"id": id, "deleted": true})
}

// HandleGetFilterOptions returns the distinct categories, brands, and price
// range available for filtering.
func (h *ProductHandler) HandleGetFilterOptions(c *fiber.Ctx) error {
	options, err := h.service.GetFilterOptions()
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, options)
}

// HandleGenerateProducts bulk-generates sample products.
func (h *ProductHandler) HandleGenerateProducts(c *fiber.Ctx) error {
	req, err := validation.ValidateGenerateRequest(c.Body(), defaultGenerateCount)
	if err != nil {
		return respondError(c, err)
	}

	created, err := h.service.GenerateSampleProducts(req.Count)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, fiber.Map{"created": created})
}
