package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "secret123"
)

// setupApp wires a Fiber app over an in-memory SQLite database, mirroring
// the wiring in main.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, nil) // nil for the event publisher

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	authService := services.NewAuthService(testAdminUser, string(hash), "test_jwt_secret")

	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(
		apiV1,
		middleware.AdminOptional(authService),
		middleware.AdminRequired(authService),
	)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	return app
}

// doJSON performs a request and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func createProduct(t *testing.T, app *fiber.App, name, category, brand, sku string, price float64) map[string]interface{} {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":     name,
		"category": category,
		"brand":    brand,
		"price":    price,
		"sku":      sku,
	}, "")
	require.Equal(t, http.StatusCreated, status, "create %s: %v", sku, body)
	return body["data"].(map[string]interface{})
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": testAdminUser,
		"password": testAdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, status)
	return body["data"].(map[string]interface{})["token"].(string)
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestCreateProduct_AppliesDefaults(t *testing.T) {
	app := setupApp(t)

	data := createProduct(t, app, "Widget", "Tools", "Acme", "SKU-ACME-001", 9.99)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, false, data["in_stock"]) // stock_quantity defaults to 0
	assert.Equal(t, 0.0, data["rating"])
	assert.Equal(t, true, data["is_active"])
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	app := setupApp(t)

	createProduct(t, app, "Widget", "Tools", "Acme", "SKU-ACME-001", 9.99)
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":     "Widget Clone",
		"category": "Tools",
		"brand":    "Acme",
		"price":    8.99,
		"sku":      "SKU-ACME-001",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "SKU-ACME-001")
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])
	assert.GreaterOrEqual(t, len(body["errors"].([]interface{})), 4)

	// Creation is strict about unknown fields.
	status, body = doJSON(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":     "Widget",
		"category": "Tools",
		"brand":    "Acme",
		"price":    9.99,
		"sku":      "SKU-ACME-002",
		"color":    "red",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])
}

func TestListProducts_SortTiebreakPagination(t *testing.T) {
	app := setupApp(t)

	cheap1 := createProduct(t, app, "Chisel", "Tools", "Acme", "SKU-T-001", 5)
	cheap2 := createProduct(t, app, "File", "Tools", "Acme", "SKU-T-002", 5)
	createProduct(t, app, "Plane", "Tools", "Acme", "SKU-T-003", 10)
	createProduct(t, app, "Lamp", "Home", "Lumina", "SKU-H-001", 7)

	cheapIDs := []string{cheap1["id"].(string), cheap2["id"].(string)}
	sort.Strings(cheapIDs)

	status, body := doJSON(t, app, http.MethodGet,
		"/api/v1/products?category=Tools&sort_by=price&sort_order=ASC&page=1&limit=2", nil, "")
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	page1 := data["products"].([]interface{})
	require.Len(t, page1, 2)
	// Equal prices are ordered by ascending identifier.
	assert.Equal(t, cheapIDs[0], page1[0].(map[string]interface{})["id"])
	assert.Equal(t, cheapIDs[1], page1[1].(map[string]interface{})["id"])

	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, 3.0, pagination["total_items"])
	assert.Equal(t, 2.0, pagination["total_pages"])
	assert.Equal(t, true, pagination["has_next_page"])
	assert.Equal(t, false, pagination["has_previous_page"])

	status, body = doJSON(t, app, http.MethodGet,
		"/api/v1/products?category=Tools&sort_by=price&sort_order=ASC&page=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, status)
	page2 := body["data"].(map[string]interface{})["products"].([]interface{})
	require.Len(t, page2, 1)
	assert.Equal(t, "SKU-T-003", page2[0].(map[string]interface{})["sku"])
}

func TestListProducts_InvalidSortRejected(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/products?sort_by=image_url", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])
}

func TestSearchProducts(t *testing.T) {
	app := setupApp(t)

	createProduct(t, app, "Power Drill", "Tools", "Acme", "SKU-001", 80)
	createProduct(t, app, "Couch", "Home", "Lumina", "SKU-002", 500)

	// Too-short query is a 400, not a validation error.
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/products/search?q=a", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "2")

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products/search?q=drill", nil, "")
	require.Equal(t, http.StatusOK, status)
	products := body["data"].(map[string]interface{})["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-001", products[0].(map[string]interface{})["sku"])
}

func TestSoftDeleteFlow(t *testing.T) {
	app := setupApp(t)

	data := createProduct(t, app, "Widget", "Tools", "Acme", "SKU-001", 9.99)
	id := data["id"].(string)

	status, body := doJSON(t, app, http.MethodDelete, "/api/v1/products/"+id, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]interface{})["deleted"])

	// Gone from the default read paths.
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/products/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, status)
	pagination := body["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, 0.0, pagination["total_items"])

	// Deleting again is a 404.
	status, _ = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInactiveListingIsAdminOnly(t *testing.T) {
	app := setupApp(t)

	data := createProduct(t, app, "Widget", "Tools", "Acme", "SKU-001", 9.99)
	id := data["id"].(string)
	status, _ := doJSON(t, app, http.MethodDelete, "/api/v1/products/"+id, nil, "")
	require.Equal(t, http.StatusOK, status)

	// Anonymous callers cannot opt into inactive records: the parameter is
	// ignored and the default active-only view applies.
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/products?is_active=false", nil, "")
	require.Equal(t, http.StatusOK, status)
	pagination := body["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, 0.0, pagination["total_items"])

	token := login(t, app)
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products?is_active=false", nil, token)
	require.Equal(t, http.StatusOK, status)
	products := body["data"].(map[string]interface{})["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, id, products[0].(map[string]interface{})["id"])
}

func TestUpdateProduct(t *testing.T) {
	app := setupApp(t)

	createProduct(t, app, "Widget", "Tools", "Acme", "SKU-001", 9.99)
	second := createProduct(t, app, "Gadget", "Tools", "Acme", "SKU-002", 19.99)
	secondID := second["id"].(string)

	// Taking another product's SKU fails.
	status, body := doJSON(t, app, http.MethodPut, "/api/v1/products/"+secondID,
		map[string]interface{}{"sku": "SKU-001"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "SKU-001")

	// Keeping its own SKU succeeds.
	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/products/"+secondID,
		map[string]interface{}{"sku": "SKU-002", "price": 24.99}, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+secondID, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 24.99, body["data"].(map[string]interface{})["price"])

	// An empty patch is rejected.
	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/products/"+secondID,
		map[string]interface{}{}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Unknown target is a 404.
	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/products/no-such-id",
		map[string]interface{}{"price": 1.0}, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFilterOptions(t *testing.T) {
	app := setupApp(t)

	createProduct(t, app, "Hammer", "Tools", "Zenith", "SKU-001", 10)
	createProduct(t, app, "Lamp", "Home", "Acme", "SKU-002", 90)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/products/filters/options", nil, "")
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Home", "Tools"}, data["categories"])
	assert.Equal(t, []interface{}{"Acme", "Zenith"}, data["brands"])
	priceRange := data["price_range"].(map[string]interface{})
	assert.Equal(t, 10.0, priceRange["min"])
	assert.Equal(t, 90.0, priceRange["max"])
}

func TestGenerateProducts(t *testing.T) {
	app := setupApp(t)

	// Generation is an admin-only capability.
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/products/generate",
		map[string]interface{}{"count": 5}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := login(t, app)
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/products/generate",
		map[string]interface{}{"count": 5}, token)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 5.0, body["data"].(map[string]interface{})["created"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products?limit=100", nil, "")
	require.Equal(t, http.StatusOK, status)
	products := body["data"].(map[string]interface{})["products"].([]interface{})
	require.Len(t, products, 5)

	skus := map[string]bool{}
	for _, p := range products {
		sku := p.(map[string]interface{})["sku"].(string)
		assert.False(t, skus[sku], "duplicate SKU %s", sku)
		skus[sku] = true
	}

	// Out-of-range counts are rejected.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/generate",
		map[string]interface{}{"count": 1001}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": testAdminUser,
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}
