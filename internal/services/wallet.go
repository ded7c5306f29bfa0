package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/example/lendly/internal/metrics"
	"github.com/example/lendly/internal/models"
)

// WalletDelta describes one signed balance adjustment.
type WalletDelta struct {
	UserID        uuid.UUID
	Amount        float64
	IsEarning     bool
	ReferenceKind string
	ReferenceID   string
	Description   string
}

// WalletStore is the ledger-store port for wallet state.
//
// ApplyDelta must perform the arithmetic server-side against the stored value
// (upsert with SQL-side addition), not as a read-modify-write from the
// caller's snapshot, and must move all wallet fields together or not at all.
type WalletStore interface {
	ApplyDelta(ctx context.Context, delta WalletDelta) (*models.Wallet, error)
	FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletEntry, int64, error)
}

// WalletService applies earning/spend deltas to user wallets. Callers must
// have already verified the legitimacy of the event (confirmed webhook,
// service-credential call); this service does no authorization of its own.
type WalletService struct {
	store WalletStore
}

func NewWalletService(store WalletStore) *WalletService {
	return &WalletService{store: store}
}

// Reconcile atomically applies a delta. Earnings add to available_balance and
// total_earned; spends subtract from available_balance and add to total_spent.
// A user with no wallet row gets one created with the delta applied from zero.
func (s *WalletService) Reconcile(ctx context.Context, delta WalletDelta) (*models.Wallet, error) {
	if delta.UserID == uuid.Nil {
		return nil, invalidRequest("user id is required")
	}
	if delta.Amount <= 0 {
		return nil, invalidRequest("amount must be positive")
	}

	wallet, err := s.store.ApplyDelta(ctx, delta)
	if err != nil {
		return nil, upstream("failed to apply wallet delta", err)
	}

	direction := models.EntryDirectionDebit
	if delta.IsEarning {
		direction = models.EntryDirectionCredit
	}
	metrics.WalletDeltasApplied.WithLabelValues(direction).Inc()
	log.Printf("[Wallet] %s %.2f applied to user %s", direction, delta.Amount, delta.UserID)

	return wallet, nil
}

// Balance returns the wallet for a user, or a zeroed wallet when the user has
// never had a delta applied.
func (s *WalletService) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, invalidRequest("user id is required")
	}

	wallet, err := s.store.FindWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, upstream("failed to load wallet", err)
	}
	return wallet, nil
}

// Entries returns the wallet ledger for a user, newest first.
func (s *WalletService) Entries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletEntry, int64, error) {
	entries, total, err := s.store.ListEntries(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, upstream("failed to list wallet entries", err)
	}
	return entries, total, nil
}
