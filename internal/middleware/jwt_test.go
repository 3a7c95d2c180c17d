package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/stake-harbor/stake_harbor/internal/auth"
)

const testSecret = "test-secret"

func authApp(t *testing.T, adminKeyHash string) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/me", JWTAuth(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  c.Locals("user_id"),
			"is_admin": c.Locals("is_admin"),
		})
	})
	app.Get("/admin", AdminAuth(testSecret, adminKeyHash), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func signToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	token, err := auth.SignHS256(claims, []byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	app := authApp(t, "")

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	app := authApp(t, "")

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, map[string]any{"sub": "u1"}))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminAuthRejectsRegularUser(t *testing.T) {
	app := authApp(t, "")

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, map[string]any{"sub": "u1"}))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminAuthAcceptsAdminClaim(t *testing.T) {
	app := authApp(t, "")

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, map[string]any{"sub": "op", "admin": true}))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminAuthAcceptsOperatorKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	app := authApp(t, string(hash))

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(adminKeyHeader, "hunter2")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req2 := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req2.Header.Set(adminKeyHeader, "wrong")

	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp2.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for wrong key, got %d", resp2.StatusCode)
	}
}
