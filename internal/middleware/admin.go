package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/stake-harbor/stake_harbor/internal/auth"
)

const adminKeyHeader = "X-Admin-Key"

// AdminAuth gates a route group to operators. A caller passes either with an
// admin-role bearer token or by presenting the operator key, verified against
// its bcrypt hash. On success the caller identity is stored on the request
// context like JWTAuth does.
func AdminAuth(secret, adminKeyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key := c.Get(adminKeyHeader); key != "" && adminKeyHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err == nil {
				c.Locals("user_id", "operator")
				c.Locals("is_admin", true)
				return c.Next()
			}
			return fiber.NewError(http.StatusForbidden, "invalid operator key")
		}

		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing credentials")
		}
		claims, err := auth.ParseAndVerifyHS256(strings.TrimSpace(authz[len("Bearer "):]), []byte(secret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		sub, _ := claims["sub"].(string)
		isAdmin, _ := claims["admin"].(bool)
		if role, _ := claims["role"].(string); role == "admin" {
			isAdmin = true
		}
		if sub == "" || !isAdmin {
			return fiber.NewError(http.StatusForbidden, "admin access required")
		}

		c.Locals("user_id", sub)
		c.Locals("is_admin", true)
		return c.Next()
	}
}
