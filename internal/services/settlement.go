package services

import (
	"context"
	"errors"
	"log"

	"github.com/example/lendly/internal/models"
)

// SettlementStore is the store port for the webhook-driven settlement path.
type SettlementStore interface {
	// FindBySession resolves a checkout session id back to its request or
	// booking. Returns ErrNoRows for unknown sessions.
	FindBySession(ctx context.Context, sessionID string) (*TransactionRequest, error)
	// MarkPaymentStatus moves payment_status from one state to another.
	// Returns ErrNoRows when the request is no longer in the from state,
	// which makes redelivered webhooks a no-op.
	MarkPaymentStatus(ctx context.Context, kind RequestKind, id string, from, to string) error
}

// SettlementService confirms or fails checkout sessions reported by the
// gateway and applies the payout to the counterparty's wallet.
type SettlementService struct {
	store  SettlementStore
	wallet *WalletService
}

func NewSettlementService(store SettlementStore, wallet *WalletService) *SettlementService {
	return &SettlementService{store: store, wallet: wallet}
}

// SessionCompleted flips the correlated request to paid and credits the
// counterparty. amount is the gateway-reported total in major units.
func (s *SettlementService) SessionCompleted(ctx context.Context, sessionID string, amount float64) error {
	req, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			// Unknown session: either not ours or correlation was
			// never persisted. Acknowledge so the gateway stops
			// redelivering.
			log.Printf("[Settlement] ignoring unknown session %s", sessionID)
			return nil
		}
		return upstream("failed to resolve session", err)
	}

	err = s.store.MarkPaymentStatus(ctx, req.Kind, req.ID.String(), models.PaymentStatusPending, models.PaymentStatusPaid)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			// Already settled by an earlier delivery.
			return nil
		}
		return upstream("failed to mark request paid", err)
	}

	if _, err := s.wallet.Reconcile(ctx, WalletDelta{
		UserID:        req.CounterpartyID,
		Amount:        amount,
		IsEarning:     true,
		ReferenceKind: string(req.Kind),
		ReferenceID:   req.ID.String(),
		Description:   "payout for session " + sessionID,
	}); err != nil {
		return err
	}

	log.Printf("[Settlement] session %s settled, %s %s paid", sessionID, req.Kind, req.ID)
	return nil
}

// SessionFailed flips the correlated request to failed. No wallet movement.
func (s *SettlementService) SessionFailed(ctx context.Context, sessionID string) error {
	req, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			log.Printf("[Settlement] ignoring unknown session %s", sessionID)
			return nil
		}
		return upstream("failed to resolve session", err)
	}

	err = s.store.MarkPaymentStatus(ctx, req.Kind, req.ID.String(), models.PaymentStatusPending, models.PaymentStatusFailed)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil
		}
		return upstream("failed to mark request failed", err)
	}

	log.Printf("[Settlement] session %s failed, %s %s marked failed", sessionID, req.Kind, req.ID)
	return nil
}
