package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stake-harbor/stake_harbor/internal/pending"
)

// RegisterRequestRoutes wires the deposit/withdraw request endpoints.
func RegisterRequestRoutes(r fiber.Router, h *pending.Handler) {
	r.Get("/requests", h.List)
	r.Post("/requests/deposit", h.Deposit)
	r.Post("/requests/withdraw", h.Withdraw)
}
