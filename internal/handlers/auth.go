package handlers

import (
	"social-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the access token on REST requests. Token comes from
// the Authorization header ("Bearer <token>"), with the access_token query
// parameter as a fallback.
func AuthMiddleware(c *fiber.Ctx) error {
	token := ""
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.Query("access_token")
	}

	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	username, err := services.ValidateToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	c.Locals("username", username)
	return c.Next()
}

// CurrentUser returns the authenticated username set by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) string {
	username, _ := c.Locals("username").(string)
	return username
}
