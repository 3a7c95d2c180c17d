package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stake-harbor/stake_harbor/internal/admin"
)

// RegisterAdminRoutes wires the operator console endpoints.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler) {
	r.Get("/requests", h.ListRequests)
	r.Post("/requests/resolve", h.Resolve)
	r.Post("/wallets/credit", h.Credit)
	r.Post("/wallets/debit", h.Debit)
	r.Post("/stakes/:stakeId/force-close", h.ForceClose)
	r.Post("/stakes/sweep", h.Sweep)
	r.Get("/users", h.ListUsers)
	r.Get("/actions", h.Actions)
}
