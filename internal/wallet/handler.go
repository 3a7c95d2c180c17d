package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type balanceResponse struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Total     string `json:"total"`
}

// Balance returns the caller's balance pair for a currency.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	currency := c.Params("currency")

	w, err := h.service.Balance(c.UserContext(), userID, currency)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// An untouched wallet reads as zero; it is created on first credit.
			w = Wallet{UserID: userID, Currency: currency, Available: decimal.Zero, Locked: decimal.Zero}
		} else {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(balanceResponse{
		Currency:  currency,
		Available: w.Available.String(),
		Locked:    w.Locked.String(),
		Total:     w.Total().String(),
	})
}

type entryResponse struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Amount    string            `json:"amount"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt string            `json:"created_at"`
}

// Entries lists the caller's recent ledger entries for a currency.
func (h *Handler) Entries(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	currency := c.Params("currency")
	limit := c.QueryInt("limit", 50)

	entries, err := h.service.Entries(c.UserContext(), userID, currency, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Amount:    e.Amount.String(),
			Meta:      e.Meta,
			CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

type transferRequest struct {
	ToUserID string `json:"to_user_id"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// Transfer moves available funds from the caller to another user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	from, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Currency:   req.Currency,
		Amount:     amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(balanceResponse{
		Currency:  req.Currency,
		Available: from.Available.String(),
		Locked:    from.Locked.String(),
		Total:     from.Total().String(),
	})
}
