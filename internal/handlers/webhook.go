package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/lendly/internal/metrics"
	"github.com/example/lendly/internal/services"
)

// WebhookHandler receives gateway payment notifications and settles the
// correlated request or booking.
type WebhookHandler struct {
	settlement *services.SettlementService
	secret     string
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(settlement *services.SettlementService, secret string) *WebhookHandler {
	return &WebhookHandler{settlement: settlement, secret: secret}
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string `json:"id"`
			AmountTotal int64  `json:"amount_total"`
		} `json:"object"`
	} `json:"data"`
}

// Handle verifies the delivery signature and dispatches the event. Redelivered
// events are acknowledged without effect.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	if !h.verifySignature(body, c.Get("X-Webhook-Signature")) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid webhook signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event payload")
	}

	metrics.WebhookEvents.WithLabelValues(event.Type).Inc()

	sessionID := event.Data.Object.ID
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "event missing session id")
	}

	ctx := c.UserContext()
	switch event.Type {
	case "checkout.session.completed":
		amount := float64(event.Data.Object.AmountTotal) / 100
		if err := h.settlement.SessionCompleted(ctx, sessionID, amount); err != nil {
			return serviceError(err)
		}
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		if err := h.settlement.SessionFailed(ctx, sessionID); err != nil {
			return serviceError(err)
		}
	default:
		log.Printf("[Webhook] ignoring event type %s", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
