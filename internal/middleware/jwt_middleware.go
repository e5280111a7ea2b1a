package middleware

import (
	"log"
	"strings"

	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LocalIsAdmin is the context key under which admin status is stored.
const LocalIsAdmin = "is_admin"

// AdminRequired is a Fiber middleware that rejects requests without a valid
// admin JWT.
func AdminRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, authService)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "A valid admin token is required",
			})
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(LocalIsAdmin, true)
		c.Locals("username", claims["sub"])
		return c.Next()
	}
}

// AdminOptional annotates the request with admin status when a valid token
// is present, and lets everything else through unauthenticated. Handlers use
// the annotation to decide whether the caller may see soft-deleted records.
func AdminOptional(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := bearerClaims(c, authService); err == nil {
			c.Locals(LocalIsAdmin, true)
			c.Locals("username", claims["sub"])
		}
		return c.Next()
	}
}

// IsAdmin reports whether the request carries a validated admin token.
func IsAdmin(c *fiber.Ctx) bool {
	isAdmin, ok := c.Locals(LocalIsAdmin).(bool)
	return ok && isAdmin
}

func bearerClaims(c *fiber.Ctx, authService *services.AuthService) (map[string]interface{}, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.ErrUnauthorized
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return nil, fiber.ErrUnauthorized
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}
	return claims, nil
}
