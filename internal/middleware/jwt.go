package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stake-harbor/stake_harbor/internal/auth"
)

// JWTAuth returns a middleware that validates JWT access tokens and stores
// the caller identity on the request context. Tokens are self-contained:
// the sub claim identifies the user and the admin claim marks operators.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(secret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		isAdmin, _ := claims["admin"].(bool)
		if role, _ := claims["role"].(string); role == "admin" {
			isAdmin = true
		}

		c.Locals("user_id", sub)
		c.Locals("is_admin", isAdmin)
		return c.Next()
	}
}
