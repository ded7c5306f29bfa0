package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/example/lendly/internal/models"
)

// fakeWalletStore applies deltas atomically under a lock, mirroring the
// database-side arithmetic of the real store.
type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*models.Wallet
	entries []models.WalletEntry
	err     error
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: make(map[uuid.UUID]*models.Wallet)}
}

func (f *fakeWalletStore) ApplyDelta(ctx context.Context, delta WalletDelta) (*models.Wallet, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	wallet, ok := f.wallets[delta.UserID]
	if !ok {
		wallet = &models.Wallet{UserID: delta.UserID}
		f.wallets[delta.UserID] = wallet
	}

	signed := delta.Amount
	if delta.IsEarning {
		wallet.AvailableBalance += delta.Amount
		wallet.TotalEarned += delta.Amount
	} else {
		wallet.AvailableBalance -= delta.Amount
		wallet.TotalSpent += delta.Amount
		signed = -delta.Amount
	}

	f.entries = append(f.entries, models.WalletEntry{
		UserID:        delta.UserID,
		Amount:        signed,
		ReferenceKind: delta.ReferenceKind,
		ReferenceID:   delta.ReferenceID,
	})

	copied := *wallet
	return &copied, nil
}

func (f *fakeWalletStore) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wallet, ok := f.wallets[userID]
	if !ok {
		return nil, ErrNoRows
	}
	copied := *wallet
	return &copied, nil
}

func (f *fakeWalletStore) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.WalletEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func TestReconcileCreditThenDebit(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)
	userID := uuid.New()

	wallet, err := svc.Reconcile(context.Background(), WalletDelta{UserID: userID, Amount: 50, IsEarning: true})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if wallet.AvailableBalance != 50 || wallet.TotalEarned != 50 || wallet.TotalSpent != 0 {
		t.Fatalf("after credit: got available=%v earned=%v spent=%v, want 50/50/0",
			wallet.AvailableBalance, wallet.TotalEarned, wallet.TotalSpent)
	}

	wallet, err = svc.Reconcile(context.Background(), WalletDelta{UserID: userID, Amount: 20, IsEarning: false})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if wallet.AvailableBalance != 30 || wallet.TotalEarned != 50 || wallet.TotalSpent != 20 {
		t.Fatalf("after debit: got available=%v earned=%v spent=%v, want 30/50/20",
			wallet.AvailableBalance, wallet.TotalEarned, wallet.TotalSpent)
	}
}

func TestReconcileConcurrentDeltas(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)
	userID := uuid.New()

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2 * rounds)

	for i := 0; i < rounds; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Reconcile(context.Background(), WalletDelta{UserID: userID, Amount: 10, IsEarning: true}); err != nil {
				t.Errorf("credit failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.Reconcile(context.Background(), WalletDelta{UserID: userID, Amount: 4, IsEarning: false}); err != nil {
				t.Errorf("debit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	wallet, err := svc.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}

	// Every +10 and -4 must both be reflected regardless of interleaving.
	want := float64(rounds*10 - rounds*4)
	if wallet.AvailableBalance != want {
		t.Errorf("lost update: available=%v, want %v", wallet.AvailableBalance, want)
	}
	if wallet.TotalEarned != float64(rounds*10) {
		t.Errorf("total_earned=%v, want %v", wallet.TotalEarned, rounds*10)
	}
	if wallet.TotalSpent != float64(rounds*4) {
		t.Errorf("total_spent=%v, want %v", wallet.TotalSpent, rounds*4)
	}
}

func TestReconcileValidation(t *testing.T) {
	svc := NewWalletService(newFakeWalletStore())

	_, err := svc.Reconcile(context.Background(), WalletDelta{Amount: 10, IsEarning: true})
	requireFailure(t, err, FailureInvalidRequest)

	_, err = svc.Reconcile(context.Background(), WalletDelta{UserID: uuid.New(), Amount: 0, IsEarning: true})
	requireFailure(t, err, FailureInvalidRequest)

	_, err = svc.Reconcile(context.Background(), WalletDelta{UserID: uuid.New(), Amount: -5, IsEarning: false})
	requireFailure(t, err, FailureInvalidRequest)
}

// wrappingWalletStore wraps lookup errors the way a store with added context
// would.
type wrappingWalletStore struct {
	*fakeWalletStore
}

func (w *wrappingWalletStore) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := w.fakeWalletStore.FindWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query wallet: %w", err)
	}
	return wallet, nil
}

func TestBalanceMatchesWrappedMissingWallet(t *testing.T) {
	svc := NewWalletService(&wrappingWalletStore{newFakeWalletStore()})
	userID := uuid.New()

	wallet, err := svc.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("wrapped missing-wallet error must still yield a zeroed wallet: %v", err)
	}
	if wallet.UserID != userID || wallet.AvailableBalance != 0 {
		t.Errorf("expected zeroed wallet for user %s, got %+v", userID, wallet)
	}
}

func TestBalanceWithoutWallet(t *testing.T) {
	svc := NewWalletService(newFakeWalletStore())
	userID := uuid.New()

	wallet, err := svc.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.UserID != userID {
		t.Errorf("expected wallet for user %s, got %s", userID, wallet.UserID)
	}
	if wallet.AvailableBalance != 0 || wallet.TotalEarned != 0 || wallet.TotalSpent != 0 {
		t.Errorf("expected zeroed wallet, got %+v", wallet)
	}
}
