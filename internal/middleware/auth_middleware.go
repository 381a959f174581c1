package middleware

import (
	"strings"

	"github.com/draworld/draworld-backend/internal/models"
	jwtPkg "github.com/draworld/draworld-backend/pkg/jwt"
	"github.com/gofiber/fiber/v2"
)

func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthenticated(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthenticated(c, "Invalid authorization header format")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := jwtPkg.ValidateToken(tokenString)
		if err != nil {
			return unauthenticated(c, "Invalid token")
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			return unauthenticated(c, "Invalid user ID in token")
		}
		userID := uint(userIDFloat)

		userEmail, ok := claims["email"].(string)
		if !ok {
			return unauthenticated(c, "Invalid email in token")
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = models.RoleUser
		}

		c.Locals("userID", userID)
		c.Locals("userEmail", userEmail)
		c.Locals("userRole", role)

		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.Response{
		Success: false,
		Error:   msg,
		Code:    models.CodeUnauthenticated,
	})
}
