package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/lendly/internal/gateway"
	"github.com/example/lendly/internal/metrics"
	"github.com/example/lendly/internal/models"
)

// RequestKind discriminates the two kinds of payable transaction requests.
type RequestKind string

const (
	KindBorrowRequest  RequestKind = "borrow_request"
	KindServiceBooking RequestKind = "service_booking"
)

// TransactionRequest is the orchestrator's view of a borrow request or
// service booking: just the fields checkout needs, regardless of kind.
type TransactionRequest struct {
	ID             uuid.UUID
	Kind           RequestKind
	SubjectID      uuid.UUID
	InitiatorID    uuid.UUID
	CounterpartyID uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	PaymentStatus  string
}

// PricedSubject is the read-only item or service a request refers to.
type PricedSubject struct {
	ID         uuid.UUID
	Title      string
	OwnerID    uuid.UUID
	DailyPrice float64
}

// Principal is the resolved caller of a checkout.
type Principal struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// CheckoutStore is the ledger-store port used by the orchestrator.
type CheckoutStore interface {
	// FindPrincipal resolves a user into a checkout principal.
	FindPrincipal(ctx context.Context, userID uuid.UUID) (*Principal, error)
	// FindTransactionRequest returns ErrNoRows when the request is absent.
	FindTransactionRequest(ctx context.Context, kind RequestKind, id uuid.UUID) (*TransactionRequest, error)
	// FindPricedSubject returns ErrNoRows when the subject is absent.
	FindPricedSubject(ctx context.Context, kind RequestKind, id uuid.UUID) (*PricedSubject, error)
	// DisplayName returns a user's display name for description text.
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
	// AttachPaymentSession records the session id and flips payment_status
	// to pending. It must refuse to touch a request that is already paid
	// and return ErrNoRows in that case.
	AttachPaymentSession(ctx context.Context, kind RequestKind, id uuid.UUID, sessionID string) error
}

// CheckoutGateway is the payment-gateway port used by the orchestrator.
type CheckoutGateway interface {
	// FindCustomerByEmail returns the id of an existing gateway customer
	// with exactly this email, or "" when none exists.
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, params gateway.SessionParams) (*gateway.Session, error)
}

// CheckoutInput carries the caller-supplied checkout parameters.
type CheckoutInput struct {
	Kind      RequestKind
	RequestID uuid.UUID
	Amount    float64
	Currency  string
}

// CheckoutResult is returned to the caller, who redirects the browser to URL.
type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// CheckoutService orchestrates checkout-session creation: it validates a
// pending request or booking, builds the charge description, creates a
// gateway session and durably records the correlation before returning.
type CheckoutService struct {
	store      CheckoutStore
	gateway    CheckoutGateway
	successURL string
	cancelURL  string
}

func NewCheckoutService(store CheckoutStore, gw CheckoutGateway, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		store:      store,
		gateway:    gw,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

const fallbackDisplayName = "Unknown User"

// CreateSession runs the checkout flow for the given user and input.
//
// The gateway session is created before the correlation is persisted; a crash
// between the two leaves an orphaned gateway session that expires on the
// gateway side. The two writes are never wrapped in a cross-service
// transaction.
func (s *CheckoutService) CreateSession(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	if in.RequestID == uuid.Nil {
		return nil, invalidRequest("request id is required")
	}
	if in.Amount <= 0 {
		return nil, invalidRequest("amount must be positive")
	}

	principal, err := s.store.FindPrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, unauthenticated("user not found")
		}
		return nil, upstream("failed to load user", err)
	}
	if strings.TrimSpace(principal.Email) == "" {
		return nil, unauthenticated("user has no email address")
	}

	req, err := s.store.FindTransactionRequest(ctx, in.Kind, in.RequestID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, notFound(string(in.Kind) + " not found")
		}
		return nil, upstream("failed to load "+string(in.Kind), err)
	}

	if req.PaymentStatus == models.PaymentStatusPaid {
		return nil, invalidRequest(string(in.Kind) + " is already paid")
	}

	subject, err := s.store.FindPricedSubject(ctx, in.Kind, req.SubjectID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, notFound("priced subject not found")
		}
		return nil, upstream("failed to load priced subject", err)
	}

	// Display names are not business-critical: a missing profile degrades
	// to a placeholder instead of failing the checkout.
	initiatorName := s.displayNameOrFallback(ctx, req.InitiatorID)
	counterpartyName := s.displayNameOrFallback(ctx, req.CounterpartyID)

	days := DurationDays(req.StartDate, req.EndDate)
	description := fmt.Sprintf("%s, %d day(s) (%s - %s). %s pays %s.",
		subject.Title,
		days,
		req.StartDate.Format("2006-01-02"),
		req.EndDate.Format("2006-01-02"),
		initiatorName,
		counterpartyName,
	)

	customerID, err := s.gateway.FindCustomerByEmail(ctx, principal.Email)
	if err != nil {
		return nil, upstream("customer lookup failed", err)
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.SessionParams{
		CustomerID:    customerID,
		CustomerEmail: principal.Email,
		Currency:      currency,
		UnitAmount:    MinorUnits(in.Amount),
		Name:          subject.Title,
		Description:   description,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		// A key derived from the request id makes resubmitted
		// session-creation calls converge on one gateway session.
		IdempotencyKey: fmt.Sprintf("checkout-%s-%s", in.Kind, req.ID),
		Metadata: map[string]string{
			"request_id":      req.ID.String(),
			"request_kind":    string(in.Kind),
			"initiator_id":    req.InitiatorID.String(),
			"counterparty_id": req.CounterpartyID.String(),
		},
	})
	if err != nil {
		return nil, upstream("failed to create checkout session", err)
	}

	if err := s.store.AttachPaymentSession(ctx, in.Kind, req.ID, session.ID); err != nil {
		if errors.Is(err, ErrNoRows) {
			// Paid out from under us between the pre-check and the
			// write. Same conflict as the pre-check, same answer.
			return nil, invalidRequest(string(in.Kind) + " is already paid")
		}
		// The gateway session already exists at this point; it is left
		// to expire gateway-side rather than rolled back.
		return nil, upstream("failed to record payment session", err)
	}

	metrics.CheckoutSessionsCreated.Inc()
	log.Printf("[Checkout] session %s created for %s %s (%d day(s), %d %s)",
		session.ID, in.Kind, req.ID, days, MinorUnits(in.Amount), currency)

	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

func (s *CheckoutService) displayNameOrFallback(ctx context.Context, userID uuid.UUID) string {
	name, err := s.store.DisplayName(ctx, userID)
	if err != nil || strings.TrimSpace(name) == "" {
		return fallbackDisplayName
	}
	return name
}

// DurationDays returns the charged duration of a date range, rounded up to
// whole days and never less than one.
func DurationDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// MinorUnits converts a decimal amount to integer minor currency units for
// currencies with two decimal places.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
