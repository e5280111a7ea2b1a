package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"catalog/internal/apperrors"
)

// respondData writes the success envelope.
func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// respondError is the single place where domain errors become HTTP
// responses. Store internals and raw error text never reach the caller.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"code":    validationErr.Code(),
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	}

	var badRequestErr *apperrors.BadRequestError
	if errors.As(err, &badRequestErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    badRequestErr.Code(),
			"message": badRequestErr.Message,
		})
	}

	var unauthorizedErr *apperrors.UnauthorizedError
	if errors.As(err, &unauthorizedErr) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"code":    unauthorizedErr.Code(),
			"message": unauthorizedErr.Message,
		})
	}

	var notFoundErr *apperrors.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    notFoundErr.Code(),
			"message": notFoundErr.Error(),
		})
	}

	var databaseErr *apperrors.DatabaseError
	if errors.As(err, &databaseErr) {
		log.Printf("Database error (%s) during %s: %v", databaseErr.Kind, databaseErr.Op, databaseErr.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    databaseErr.Code(),
			"message": "A database error occurred",
		})
	}

	log.Printf("Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"code":    apperrors.CodeInternal,
		"message": "An internal server error occurred",
	})
}
