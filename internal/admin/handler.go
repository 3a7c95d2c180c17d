package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/identity"
	"github.com/stake-harbor/stake_harbor/internal/pending"
	"github.com/stake-harbor/stake_harbor/internal/stake"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Handler exposes the admin console endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds the admin HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *fiber.Ctx) identity.Actor {
	id, _ := c.Locals("user_id").(string)
	isAdmin, _ := c.Locals("is_admin").(bool)
	return identity.Actor{ID: id, Admin: isAdmin}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, stake.ErrNotFound), errors.Is(err, pending.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, pending.ErrAlreadyResolved), errors.Is(err, stake.ErrStakeNotActive):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

type adjustRequest struct {
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

type balanceResponse struct {
	UserID    string `json:"user_id"`
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Total     string `json:"total"`
}

func toBalanceResponse(w wallet.Wallet) balanceResponse {
	return balanceResponse{
		UserID:    w.UserID,
		Currency:  w.Currency,
		Available: w.Available.String(),
		Locked:    w.Locked.String(),
		Total:     w.Total().String(),
	}
}

func (h *Handler) adjust(c *fiber.Ctx, credit bool) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	actor := actorFrom(c)
	var w wallet.Wallet
	if credit {
		w, err = h.service.CreditWallet(c.UserContext(), actor, req.UserID, req.Currency, amount, req.Note)
	} else {
		w, err = h.service.DebitWallet(c.UserContext(), actor, req.UserID, req.Currency, amount, req.Note)
	}
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toBalanceResponse(w))
}

// Credit adds funds to a user wallet.
func (h *Handler) Credit(c *fiber.Ctx) error {
	return h.adjust(c, true)
}

// Debit removes funds from a user wallet.
func (h *Handler) Debit(c *fiber.Ctx) error {
	return h.adjust(c, false)
}

type forceCloseRequest struct {
	Bonus    string `json:"bonus"`
	Penalize bool   `json:"penalize"`
	Note     string `json:"note"`
}

// ForceClose cancels an active stake with an optional bonus or penalty.
func (h *Handler) ForceClose(c *fiber.Ctx) error {
	stakeID := c.Params("stakeId")

	var req forceCloseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	bonus := decimal.Zero
	if req.Bonus != "" {
		var err error
		if bonus, err = decimal.NewFromString(req.Bonus); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid bonus")
		}
	}

	s, err := h.service.ForceCloseStake(c.UserContext(), actorFrom(c), stakeID, bonus, req.Penalize, req.Note)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":     s.ID,
		"status": string(s.Status),
		"yield":  s.YieldAccumulated.String(),
	})
}

// Sweep closes all matured locked stakes, reporting per-item outcomes.
func (h *Handler) Sweep(c *fiber.Ctx) error {
	results, err := h.service.SweepMatured(c.UserContext(), actorFrom(c))
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		item := fiber.Map{"stake_id": r.StakeID, "closed": r.Closed}
		if r.Err != nil {
			item["error"] = r.Err.Error()
		}
		out = append(out, item)
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListRequests returns pending (or otherwise filtered) requests.
func (h *Handler) ListRequests(c *fiber.Ctx) error {
	status := pending.Status(c.Query("status", string(pending.StatusPending)))
	limit := c.QueryInt("limit", 100)

	requests, err := h.service.ListRequests(c.UserContext(), actorFrom(c), status, limit)
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(requests))
	for _, r := range requests {
		out = append(out, fiber.Map{
			"id":           r.ID,
			"user_id":      r.UserID,
			"type":         string(r.Type),
			"currency":     r.Currency,
			"amount_asset": r.AmountAsset.String(),
			"amount_usd":   r.AmountUSD.String(),
			"status":       string(r.Status),
			"created_at":   r.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

type resolveRequest struct {
	Items []struct {
		ID      string `json:"id"`
		Approve bool   `json:"approve"`
	} `json:"items"`
}

// Resolve applies a batch of request approvals/rejections with per-item results.
func (h *Handler) Resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	items := make([]pending.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, pending.BatchItem{ID: item.ID, Approve: item.Approve})
	}

	results, err := h.service.ResolveRequests(c.UserContext(), actorFrom(c), items)
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		item := fiber.Map{"id": r.ID}
		if r.Err != nil {
			item["error"] = r.Err.Error()
		} else {
			item["status"] = string(r.Status)
		}
		out = append(out, item)
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListUsers returns every user's aggregated balances.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	aggregates, err := h.service.ListUsers(c.UserContext(), actorFrom(c))
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(aggregates))
	for _, agg := range aggregates {
		balances := make([]balanceResponse, 0, len(agg.Wallets))
		for _, w := range agg.Wallets {
			balances = append(balances, toBalanceResponse(w))
		}
		out = append(out, fiber.Map{"user_id": agg.UserID, "balances": balances})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Actions lists recent admin audit records.
func (h *Handler) Actions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	records, err := h.service.RecentActions(c.UserContext(), actorFrom(c), limit)
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		out = append(out, fiber.Map{
			"id":          r.ID,
			"actor":       r.Actor,
			"action":      r.Action,
			"target_type": r.TargetType,
			"target_id":   r.TargetID,
			"meta":        r.Meta,
			"created_at":  r.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}
