package apperrors

import (
	"fmt"
)

// Machine-readable error codes carried by every domain error.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeDatabase     = "DATABASE_ERROR"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// FieldError describes a single violated validation rule.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// ValidationError reports every violated rule of a request, not just the
// first one.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Code returns the machine-readable error code.
func (e *ValidationError) Code() string { return CodeValidation }

// BadRequestError signals a business-rule violation, e.g. a duplicate SKU
// or a too-short search query.
type BadRequestError struct {
	Message string
	Meta    map[string]interface{}
}

func (e *BadRequestError) Error() string { return e.Message }

// Code returns the machine-readable error code.
func (e *BadRequestError) Code() string { return CodeBadRequest }

// NewBadRequest creates a BadRequestError with an optional metadata map.
func NewBadRequest(message string, meta map[string]interface{}) *BadRequestError {
	return &BadRequestError{Message: message, Meta: meta}
}

// UnauthorizedError signals missing or invalid credentials.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// Code returns the machine-readable error code.
func (e *UnauthorizedError) Code() string { return CodeUnauthorized }

// NewUnauthorized creates an UnauthorizedError.
func NewUnauthorized(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// NotFoundError signals that a referenced entity is absent (or soft-deleted
// and therefore invisible to the caller).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Code returns the machine-readable error code.
func (e *NotFoundError) Code() string { return CodeNotFound }

// NewNotFound creates a NotFoundError for the given resource and identifier.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// DatabaseKind is the pre-classified subtype of a store-layer failure.
type DatabaseKind string

const (
	DBConnection          DatabaseKind = "connection"
	DBUniqueViolation     DatabaseKind = "unique_violation"
	DBForeignKeyViolation DatabaseKind = "foreign_key_violation"
	DBNotNullViolation    DatabaseKind = "not_null_violation"
	DBGeneric             DatabaseKind = "operation_failed"
)

// DatabaseError wraps a raw store error with its classified kind and the
// operation that produced it. The raw error never reaches API responses.
type DatabaseError struct {
	Kind DatabaseKind
	Op   string
	Err  error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error (%s) during %s: %v", e.Kind, e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *DatabaseError) Code() string { return CodeDatabase }

// NewDatabase wraps a raw store error with its classification.
func NewDatabase(kind DatabaseKind, op string, err error) *DatabaseError {
	return &DatabaseError{Kind: kind, Op: op, Err: err}
}

// InternalError wraps an unexpected failure so that no raw error escapes to
// the transport layer unclassified.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *InternalError) Code() string { return CodeInternal }

// WrapInternal wraps err as an InternalError. Known domain errors pass
// through unchanged so their status mapping is preserved.
func WrapInternal(err error) error {
	switch err.(type) {
	case *ValidationError, *BadRequestError, *UnauthorizedError, *NotFoundError, *DatabaseError, *InternalError:
		return err
	}
	return &InternalError{Err: err}
}
