package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/services"
	"github.com/example/lendly/internal/utils"
)

// WalletHandler exposes wallet balance, ledger and reconciliation endpoints.
type WalletHandler struct {
	wallet *services.WalletService
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(wallet *services.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// GetWallet returns the authenticated user's balances.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	wallet, err := h.wallet.Balance(c.UserContext(), userID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": wallet})
}

// ListEntries returns the authenticated user's wallet ledger, newest first.
func (h *WalletHandler) ListEntries(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	entries, total, err := h.wallet.Entries(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type reconcileRequest struct {
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	IsEarning bool    `json:"is_earning"`
}

// Reconcile applies a signed wallet delta. Internal, service-key guarded: the
// caller must have already verified the legitimacy of the earning or spend.
func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	var req reconcileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}

	if _, err := h.wallet.Reconcile(c.UserContext(), services.WalletDelta{
		UserID:        userID,
		Amount:        req.Amount,
		IsEarning:     req.IsEarning,
		ReferenceKind: "manual",
		Description:   "internal reconciliation",
	}); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}
