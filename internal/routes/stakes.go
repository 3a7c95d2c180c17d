package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stake-harbor/stake_harbor/internal/stake"
)

// RegisterStakeRoutes wires the user staking endpoints.
func RegisterStakeRoutes(r fiber.Router, h *stake.Handler) {
	r.Get("/stakes/plans", h.Plans)
	r.Get("/stakes", h.List)
	r.Post("/stakes", h.Open)
	r.Post("/stakes/:stakeId/close", h.Close)
}
