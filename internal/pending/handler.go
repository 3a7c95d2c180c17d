package pending

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Handler exposes the user-facing request endpoints. Admin resolution lives
// on the admin surface.
type Handler struct {
	service *Service
}

// NewHandler builds a pending-request HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Currency    string `json:"currency"`
	AmountAsset string `json:"amount_asset"`
	AmountUSD   string `json:"amount_usd"`
}

type requestResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Currency    string `json:"currency"`
	AmountAsset string `json:"amount_asset"`
	AmountUSD   string `json:"amount_usd"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
}

func toRequestResponse(r Request) requestResponse {
	resp := requestResponse{
		ID:          r.ID,
		Type:        string(r.Type),
		Currency:    r.Currency,
		AmountAsset: r.AmountAsset.String(),
		AmountUSD:   r.AmountUSD.String(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339Nano),
	}
	if r.ResolvedAt != nil {
		resp.ResolvedAt = r.ResolvedAt.Format(time.RFC3339Nano)
	}
	return resp
}

func parseSubmit(c *fiber.Ctx) (string, decimal.Decimal, decimal.Decimal, error) {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return "", decimal.Zero, decimal.Zero, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.AmountAsset)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, fiber.NewError(http.StatusBadRequest, "invalid amount_asset")
	}
	usd := decimal.Zero
	if req.AmountUSD != "" {
		if usd, err = decimal.NewFromString(req.AmountUSD); err != nil {
			return "", decimal.Zero, decimal.Zero, fiber.NewError(http.StatusBadRequest, "invalid amount_usd")
		}
	}
	return req.Currency, amount, usd, nil
}

// Deposit submits a deposit request for admin confirmation.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	currency, amount, usd, err := parseSubmit(c)
	if err != nil {
		return err
	}

	req, err := h.service.RequestDeposit(c.UserContext(), userID, currency, amount, usd)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toRequestResponse(req))
}

// Withdraw submits a withdrawal request, holding the funds immediately.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	currency, amount, usd, err := parseSubmit(c)
	if err != nil {
		return err
	}

	req, err := h.service.RequestWithdraw(c.UserContext(), userID, currency, amount, usd)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrInsufficientFunds), errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusUnprocessableEntity, wallet.ErrInsufficientFunds.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toRequestResponse(req))
}

// List returns the caller's requests.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	requests, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]requestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toRequestResponse(r))
	}
	return c.Status(http.StatusOK).JSON(out)
}
