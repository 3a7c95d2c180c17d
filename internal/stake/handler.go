package stake

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Handler exposes staking HTTP endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler builds a stake HTTP handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

type planResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Mode     string `json:"mode"`
	Days     int    `json:"days,omitempty"`
	APR      string `json:"apr"`
}

// Plans lists the plans stakes can be opened against.
func (h *Handler) Plans(c *fiber.Ctx) error {
	plans, err := h.manager.Plans(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{ID: p.ID, Currency: p.Currency, Mode: string(p.Mode), Days: p.Days, APR: p.APR.String()})
	}
	return c.Status(http.StatusOK).JSON(out)
}

type openRequest struct {
	PlanID string `json:"plan_id"`
	Amount string `json:"amount"`
}

type stakeResponse struct {
	ID               string `json:"id"`
	PlanID           string `json:"plan_id"`
	Mode             string `json:"mode"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	StartAt          string `json:"start_at"`
	EndAt            string `json:"end_at,omitempty"`
	Status           string `json:"status"`
	YieldAccumulated string `json:"yield_accumulated"`
}

func toStakeResponse(s Stake) stakeResponse {
	resp := stakeResponse{
		ID:               s.ID,
		PlanID:           s.Plan.ID,
		Mode:             string(s.Plan.Mode),
		Amount:           s.Amount.String(),
		Currency:         s.Currency,
		StartAt:          s.StartAt.Format(time.RFC3339Nano),
		Status:           string(s.Status),
		YieldAccumulated: s.YieldAccumulated.String(),
	}
	if s.EndAt != nil {
		resp.EndAt = s.EndAt.Format(time.RFC3339Nano)
	}
	return resp
}

// Open creates a stake funded from the caller's available balance.
func (h *Handler) Open(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	s, err := h.manager.Open(c.UserContext(), userID, req.PlanID, amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, rate.ErrNoRate), errors.Is(err, rate.ErrUnknownMode):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusUnprocessableEntity, wallet.ErrInsufficientFunds.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toStakeResponse(s))
}

// List returns the caller's stakes.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	stakes, err := h.manager.List(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]stakeResponse, 0, len(stakes))
	for _, s := range stakes {
		out = append(out, toStakeResponse(s))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Close realizes a flexible stake for the caller.
func (h *Handler) Close(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	stakeID := c.Params("stakeId")

	s, err := h.manager.CloseFlexible(c.UserContext(), userID, stakeID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrWrongStakeType), errors.Is(err, ErrStakeNotActive):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toStakeResponse(s))
}
