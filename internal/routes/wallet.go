package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// RegisterWalletRoutes wires balance, history, and transfer endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets/:currency", h.Balance)
	r.Get("/wallets/:currency/entries", h.Entries)
	r.Post("/transfers", h.Transfer)
}
