package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"github.com/example/lendly/internal/models"
	"github.com/example/lendly/internal/services"
)

const testWebhookSecret = "whsec_test"

type stubSettlementStore struct {
	request  *services.TransactionRequest
	findErr  error
	markedTo string
}

func (s *stubSettlementStore) FindBySession(ctx context.Context, sessionID string) (*services.TransactionRequest, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.request, nil
}

func (s *stubSettlementStore) MarkPaymentStatus(ctx context.Context, kind services.RequestKind, id string, from, to string) error {
	s.markedTo = to
	return nil
}

type stubWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*models.Wallet
}

func (s *stubWalletStore) ApplyDelta(ctx context.Context, delta services.WalletDelta) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallets == nil {
		s.wallets = make(map[uuid.UUID]*models.Wallet)
	}
	wallet, ok := s.wallets[delta.UserID]
	if !ok {
		wallet = &models.Wallet{UserID: delta.UserID}
		s.wallets[delta.UserID] = wallet
	}
	if delta.IsEarning {
		wallet.AvailableBalance += delta.Amount
		wallet.TotalEarned += delta.Amount
	} else {
		wallet.AvailableBalance -= delta.Amount
		wallet.TotalSpent += delta.Amount
	}
	return wallet, nil
}

func (s *stubWalletStore) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, services.ErrNoRows
	}
	return wallet, nil
}

func (s *stubWalletStore) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletEntry, int64, error) {
	return nil, 0, nil
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookFixture(store *stubSettlementStore, wallets *stubWalletStore) *fiber.App {
	settlement := services.NewSettlementService(store, services.NewWalletService(wallets))
	handler := NewWebhookHandler(settlement, testWebhookSecret)

	app := newTestApp()
	app.Post("/api/payments/webhook", handler.Handle)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := webhookFixture(&stubSettlementStore{}, &stubWalletStore{})

	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":1000}}}`)
	resp := postWebhook(t, app, body, "deadbeef")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", resp.StatusCode)
	}

	resp = postWebhook(t, app, body, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing signature, got %d", resp.StatusCode)
	}
}

func TestWebhookCompletedSettlesAndPaysOut(t *testing.T) {
	lenderID := uuid.New()
	store := &stubSettlementStore{
		request: &services.TransactionRequest{
			ID:             uuid.New(),
			Kind:           services.KindBorrowRequest,
			CounterpartyID: lenderID,
		},
	}
	wallets := &stubWalletStore{}
	app := webhookFixture(store, wallets)

	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":1350}}}`)
	resp := postWebhook(t, app, body, sign(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if store.markedTo != models.PaymentStatusPaid {
		t.Errorf("expected request marked paid, got %q", store.markedTo)
	}

	wallet, err := wallets.FindWallet(context.Background(), lenderID)
	if err != nil {
		t.Fatalf("expected lender wallet: %v", err)
	}
	if wallet.AvailableBalance != 13.5 {
		t.Errorf("expected payout 13.5, got %v", wallet.AvailableBalance)
	}
}

func TestWebhookExpiredMarksFailed(t *testing.T) {
	store := &stubSettlementStore{
		request: &services.TransactionRequest{
			ID:             uuid.New(),
			Kind:           services.KindServiceBooking,
			CounterpartyID: uuid.New(),
		},
	}
	app := webhookFixture(store, &stubWalletStore{})

	body := []byte(`{"type":"checkout.session.expired","data":{"object":{"id":"cs_1"}}}`)
	resp := postWebhook(t, app, body, sign(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.markedTo != models.PaymentStatusFailed {
		t.Errorf("expected request marked failed, got %q", store.markedTo)
	}
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	app := webhookFixture(&stubSettlementStore{}, &stubWalletStore{})

	body := []byte(`{"type":"invoice.created","data":{"object":{"id":"in_1"}}}`)
	resp := postWebhook(t, app, body, sign(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for ignored event, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Post("/api/payments/checkout", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/payments/checkout", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}
	if resp.ContentLength > 0 {
		t.Errorf("expected empty preflight body, got length %d", resp.ContentLength)
	}
}
