package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lendly/internal/config"
	"github.com/example/lendly/internal/gateway"
	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/services"
	"github.com/example/lendly/internal/utils"
)

const testJWTSecret = "test-secret"

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
}

type stubCheckoutStore struct {
	principal  *services.Principal
	request    *services.TransactionRequest
	requestErr error
	subject    *services.PricedSubject
	attachErr  error
}

func (s *stubCheckoutStore) FindPrincipal(ctx context.Context, userID uuid.UUID) (*services.Principal, error) {
	return s.principal, nil
}

func (s *stubCheckoutStore) FindTransactionRequest(ctx context.Context, kind services.RequestKind, id uuid.UUID) (*services.TransactionRequest, error) {
	if s.requestErr != nil {
		return nil, s.requestErr
	}
	return s.request, nil
}

func (s *stubCheckoutStore) FindPricedSubject(ctx context.Context, kind services.RequestKind, id uuid.UUID) (*services.PricedSubject, error) {
	return s.subject, nil
}

func (s *stubCheckoutStore) DisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	return "Test User", nil
}

func (s *stubCheckoutStore) AttachPaymentSession(ctx context.Context, kind services.RequestKind, id uuid.UUID, sessionID string) error {
	return s.attachErr
}

type stubGateway struct{}

func (stubGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	return "", nil
}

func (stubGateway) CreateCheckoutSession(ctx context.Context, params gateway.SessionParams) (*gateway.Session, error) {
	return &gateway.Session{ID: "cs_stub", URL: "https://checkout.test/cs_stub"}, nil
}

func checkoutFixture(t *testing.T, store *stubCheckoutStore) (*fiber.App, string) {
	t.Helper()

	userID := uuid.New()
	if store.principal == nil {
		store.principal = &services.Principal{ID: userID, Email: "user@example.com"}
	}

	cfg := &config.Config{JWTSecret: testJWTSecret}
	svc := services.NewCheckoutService(store, stubGateway{}, "https://app.test/ok", "https://app.test/cancel")
	handler := NewCheckoutHandler(svc)

	app := newTestApp()
	app.Post("/api/payments/checkout", middleware.AuthMiddleware(cfg), handler.Checkout)

	token, err := utils.GenerateToken(testJWTSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return app, token
}

func postCheckout(t *testing.T, app *fiber.App, token string, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestCheckoutSuccess(t *testing.T) {
	requestID := uuid.New()
	store := &stubCheckoutStore{
		request: &services.TransactionRequest{
			ID:        requestID,
			Kind:      services.KindBorrowRequest,
			StartDate: time.Now(),
			EndDate:   time.Now().Add(48 * time.Hour),
		},
		subject: &services.PricedSubject{Title: "Ladder"},
	}
	app, token := checkoutFixture(t, store)

	resp := postCheckout(t, app, token, `{"request_id":"`+requestID.String()+`","amount":25}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		URL       string `json:"url"`
		SessionID string `json:"session_id"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.SessionID != "cs_stub" || result.URL == "" {
		t.Errorf("unexpected response %+v", result)
	}
}

func TestCheckoutAcceptsCamelCaseKeys(t *testing.T) {
	requestID := uuid.New()
	store := &stubCheckoutStore{
		request: &services.TransactionRequest{
			ID:        requestID,
			Kind:      services.KindBorrowRequest,
			StartDate: time.Now(),
			EndDate:   time.Now().Add(48 * time.Hour),
		},
		subject: &services.PricedSubject{Title: "Ladder"},
	}
	app, token := checkoutFixture(t, store)

	resp := postCheckout(t, app, token, `{"requestId":"`+requestID.String()+`","amount":25}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for camelCase requestId, got %d", resp.StatusCode)
	}

	bookingStore := &stubCheckoutStore{
		request: &services.TransactionRequest{
			ID:        requestID,
			Kind:      services.KindServiceBooking,
			StartDate: time.Now(),
			EndDate:   time.Now().Add(24 * time.Hour),
		},
		subject: &services.PricedSubject{Title: "Tutoring"},
	}
	app, token = checkoutFixture(t, bookingStore)

	resp = postCheckout(t, app, token, `{"bookingId":"`+requestID.String()+`","amount":25}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for camelCase bookingId, got %d", resp.StatusCode)
	}
}

func TestCheckoutMissingID(t *testing.T) {
	app, token := checkoutFixture(t, &stubCheckoutStore{})

	resp := postCheckout(t, app, token, `{"amount":25}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckoutNotFoundMapsTo404(t *testing.T) {
	store := &stubCheckoutStore{requestErr: services.ErrNoRows}
	app, token := checkoutFixture(t, store)

	resp := postCheckout(t, app, token, `{"request_id":"`+uuid.NewString()+`","amount":25}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	var envelope map[string]string
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope["error"] == "" {
		t.Error("expected error message in envelope")
	}
}

func TestCheckoutUpstreamMapsTo502(t *testing.T) {
	store := &stubCheckoutStore{requestErr: errors.New("connection reset")}
	app, token := checkoutFixture(t, store)

	resp := postCheckout(t, app, token, `{"request_id":"`+uuid.NewString()+`","amount":25}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestCheckoutRequiresToken(t *testing.T) {
	app, _ := checkoutFixture(t, &stubCheckoutStore{})

	resp := postCheckout(t, app, "", `{"request_id":"`+uuid.NewString()+`","amount":25}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
