package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"catalog/internal/apperrors"
	"catalog/internal/models"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field errors under their json names so transport and
	// validation agree on naming.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// CreateProductRequest carries all fields accepted on product creation.
type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   string   `json:"description" validate:"omitempty,max=2000"`
	Category      string   `json:"category" validate:"required,min=2,max=100"`
	Brand         string   `json:"brand" validate:"required,min=1,max=100"`
	Price         float64  `json:"price" validate:"required,gt=0,lte=999999.99"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,gte=0"`
	SKU           string   `json:"sku" validate:"required,min=3,max=100,sku"`
	ImageURL      string   `json:"image_url" validate:"omitempty,url,startswith=http,max=500"`
	IsActive      *bool    `json:"is_active"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount   *int     `json:"review_count" validate:"omitempty,gte=0"`
}

// ToProduct converts the request into a product, applying defaults for the
// optional numeric and boolean fields.
func (r *CreateProductRequest) ToProduct() models.Product {
	p := models.Product{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Brand:       r.Brand,
		Price:       r.Price,
		SKU:         r.SKU,
		ImageURL:    r.ImageURL,
		IsActive:    true,
	}
	if r.StockQuantity != nil {
		p.StockQuantity = *r.StockQuantity
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
	}
	if r.ReviewCount != nil {
		p.ReviewCount = *r.ReviewCount
	}
	return p
}

// ValidateCreateProduct decodes and validates a creation payload. Unknown
// fields are rejected: creation is intentionally strict.
func ValidateCreateProduct(body []byte) (*CreateProductRequest, error) {
	var req CreateProductRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if field, ok := unknownField(err); ok {
			return nil, &apperrors.ValidationError{Fields: []apperrors.FieldError{
				{Field: field, Message: "is not a recognized field", Value: nil},
			}}
		}
		return nil, apperrors.NewBadRequest("Invalid request body", nil)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, toValidationError(err)
	}
	return &req, nil
}

// UpdateProductRequest is a partial patch: every field is optional, but at
// least one must be present. Unknown fields are stripped.
type UpdateProductRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Category      *string  `json:"category" validate:"omitempty,min=2,max=100"`
	Brand         *string  `json:"brand" validate:"omitempty,min=1,max=100"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0,lte=999999.99"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,gte=0"`
	SKU           *string  `json:"sku" validate:"omitempty,min=3,max=100,sku"`
	ImageURL      *string  `json:"image_url" validate:"omitempty,url,startswith=http,max=500"`
	IsActive      *bool    `json:"is_active"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount   *int     `json:"review_count" validate:"omitempty,gte=0"`
}

// Patch returns the column/value pairs the request actually carries.
func (r *UpdateProductRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	if r.Name != nil {
		patch["name"] = *r.Name
	}
	if r.Description != nil {
		patch["description"] = *r.Description
	}
	if r.Category != nil {
		patch["category"] = *r.Category
	}
	if r.Brand != nil {
		patch["brand"] = *r.Brand
	}
	if r.Price != nil {
		patch["price"] = *r.Price
	}
	if r.StockQuantity != nil {
		patch["stock_quantity"] = *r.StockQuantity
	}
	if r.SKU != nil {
		patch["sku"] = *r.SKU
	}
	if r.ImageURL != nil {
		patch["image_url"] = *r.ImageURL
	}
	if r.IsActive != nil {
		patch["is_active"] = *r.IsActive
	}
	if r.Rating != nil {
		patch["rating"] = *r.Rating
	}
	if r.ReviewCount != nil {
		patch["review_count"] = *r.ReviewCount
	}
	return patch
}

// ValidateUpdateProduct decodes and validates a patch payload.
func ValidateUpdateProduct(body []byte) (*UpdateProductRequest, error) {
	var req UpdateProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewBadRequest("Invalid request body", nil)
	}
	if len(req.Patch()) == 0 {
		return nil, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "body", Message: "at least one field must be provided", Value: nil},
		}}
	}
	if err := validate.Struct(&req); err != nil {
		return nil, toValidationError(err)
	}
	return &req, nil
}

// ListProductsFilter is the coerced and defaulted filter of a listing.
type ListProductsFilter struct {
	Page      int      `json:"page" validate:"gte=1,lte=10000"`
	Limit     int      `json:"limit" validate:"gte=1,lte=100"`
	Category  string   `json:"category" validate:"omitempty,max=100"`
	Brand     string   `json:"brand" validate:"omitempty,max=100"`
	MinPrice  *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice  *float64 `json:"max_price" validate:"omitempty,gte=0"`
	Search    string   `json:"search" validate:"omitempty,min=2,max=255"`
	SortBy    string   `json:"sort_by" validate:"oneof=name price rating created_at category brand stock_quantity"`
	SortOrder string   `json:"sort_order" validate:"oneof=ASC DESC"`
	IsActive  bool     `json:"is_active"`
}

// ParseListFilter coerces raw query parameters into a ListProductsFilter,
// applying defaults and collecting every violation. Parameters outside the
// recognized set are ignored.
func ParseListFilter(query map[string]string) (*ListProductsFilter, error) {
	filter := &ListProductsFilter{
		Page:      1,
		Limit:     20,
		SortBy:    "created_at",
		SortOrder: "DESC",
		IsActive:  true,
	}
	var fields []apperrors.FieldError

	if raw, ok := query["page"]; ok && raw != "" {
		if n, err := strconv.Atoi(raw); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "page", Message: "must be an integer", Value: raw})
		} else {
			filter.Page = n
		}
	}
	if raw, ok := query["limit"]; ok && raw != "" {
		if n, err := strconv.Atoi(raw); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "limit", Message: "must be an integer", Value: raw})
		} else {
			filter.Limit = n
		}
	}
	if raw, ok := query["min_price"]; ok && raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "min_price", Message: "must be a number", Value: raw})
		} else {
			filter.MinPrice = &f
		}
	}
	if raw, ok := query["max_price"]; ok && raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "max_price", Message: "must be a number", Value: raw})
		} else {
			filter.MaxPrice = &f
		}
	}
	if raw, ok := query["is_active"]; ok && raw != "" {
		if b, err := strconv.ParseBool(raw); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "is_active", Message: "must be a boolean", Value: raw})
		} else {
			filter.IsActive = b
		}
	}
	filter.Category = strings.TrimSpace(query["category"])
	filter.Brand = strings.TrimSpace(query["brand"])
	filter.Search = strings.TrimSpace(query["search"])
	if raw, ok := query["sort_by"]; ok && raw != "" {
		filter.SortBy = raw
	}
	if raw, ok := query["sort_order"]; ok && raw != "" {
		filter.SortOrder = strings.ToUpper(raw)
	}

	if err := validate.Struct(filter); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields = append(fields, collectFieldErrors(validationErrors)...)
		} else {
			return nil, apperrors.WrapInternal(err)
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		fields = append(fields, apperrors.FieldError{Field: "max_price", Message: "must be greater than or equal to min_price", Value: *filter.MaxPrice})
	}
	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}
	return filter, nil
}

// ValidateSearchQuery enforces the minimum search term length. A too-short
// term is a business-rule violation, not a schema one.
func ValidateSearchQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return "", apperrors.NewBadRequest("Search query must be at least 2 characters long", map[string]interface{}{"query": q})
	}
	return q, nil
}

// GenerateRequest carries the number of sample products to generate.
type GenerateRequest struct {
	Count int `json:"count" validate:"gte=1,lte=1000"`
}

// ValidateGenerateRequest decodes a generation payload, defaulting count to
// defaultCount when the body omits it.
func ValidateGenerateRequest(body []byte, defaultCount int) (*GenerateRequest, error) {
	req := GenerateRequest{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, apperrors.NewBadRequest("Invalid request body", nil)
		}
	}
	if req.Count == 0 {
		req.Count = defaultCount
	}
	if err := validate.Struct(&req); err != nil {
		return nil, toValidationError(err)
	}
	return &req, nil
}

// toValidationError converts validator output into the exhaustive
// field-error list the API reports.
func toValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.WrapInternal(err)
	}
	return &apperrors.ValidationError{Fields: collectFieldErrors(validationErrors)}
}

func collectFieldErrors(validationErrors validator.ValidationErrors) []apperrors.FieldError {
	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, apperrors.FieldError{
			Field:   e.Field(),
			Message: messageForTag(e),
			Value:   e.Value(),
		})
	}
	return fields
}

func messageForTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(e.Param()), ", "))
	case "url", "startswith":
		return "must be a valid HTTP(S) URL"
	case "sku":
		return "must contain only uppercase letters, digits, hyphens and underscores"
	default:
		return fmt.Sprintf("failed on the '%s' rule", e.Tag())
	}
}

// unknownField extracts the offending field name from a strict-decoding
// error, if that is what err is.
func unknownField(err error) (string, bool) {
	msg := err.Error()
	marker := `json: unknown field "`
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	rest := msg[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
