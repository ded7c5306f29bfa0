package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/services"
)

// CheckoutHandler exposes the checkout-session endpoint.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	RequestID string  `json:"request_id"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`

	// camelCase aliases, accepted from clients using the original API shape.
	RequestIDAlias string `json:"requestId"`
	BookingIDAlias string `json:"bookingId"`
}

// Checkout creates a payment session for a borrow request or service booking
// and returns the hosted checkout URL the browser should be redirected to.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.RequestID == "" {
		req.RequestID = req.RequestIDAlias
	}
	if req.BookingID == "" {
		req.BookingID = req.BookingIDAlias
	}

	var (
		kind  services.RequestKind
		rawID string
	)
	switch {
	case req.RequestID != "":
		kind, rawID = services.KindBorrowRequest, req.RequestID
	case req.BookingID != "":
		kind, rawID = services.KindServiceBooking, req.BookingID
	default:
		return fiber.NewError(fiber.StatusBadRequest, "request_id or booking_id is required")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result, err := h.checkout.CreateSession(c.UserContext(), userID, services.CheckoutInput{
		Kind:      kind,
		RequestID: id,
		Amount:    req.Amount,
		Currency:  req.Currency,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(result)
}
