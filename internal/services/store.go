package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/lendly/internal/models"
)

// GormStore backs the checkout, wallet and settlement store ports with the
// application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindPrincipal(ctx context.Context, userID uuid.UUID) (*Principal, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRows
		}
		return nil, err
	}
	return &Principal{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}, nil
}

func (s *GormStore) FindTransactionRequest(ctx context.Context, kind RequestKind, id uuid.UUID) (*TransactionRequest, error) {
	switch kind {
	case KindBorrowRequest:
		var req models.BorrowRequest
		if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
			return nil, mapNoRows(err)
		}
		return &TransactionRequest{
			ID:             req.ID,
			Kind:           kind,
			SubjectID:      req.ItemID,
			InitiatorID:    req.BorrowerID,
			CounterpartyID: req.LenderID,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			PaymentStatus:  req.PaymentStatus,
		}, nil
	case KindServiceBooking:
		var booking models.ServiceBooking
		if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
			return nil, mapNoRows(err)
		}
		return &TransactionRequest{
			ID:             booking.ID,
			Kind:           kind,
			SubjectID:      booking.ServiceID,
			InitiatorID:    booking.CustomerID,
			CounterpartyID: booking.ProviderID,
			StartDate:      booking.StartDate,
			EndDate:        booking.EndDate,
			PaymentStatus:  booking.PaymentStatus,
		}, nil
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
}

func (s *GormStore) FindPricedSubject(ctx context.Context, kind RequestKind, id uuid.UUID) (*PricedSubject, error) {
	switch kind {
	case KindBorrowRequest:
		var item models.Item
		if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
			return nil, mapNoRows(err)
		}
		return &PricedSubject{ID: item.ID, Title: item.Title, OwnerID: item.OwnerID, DailyPrice: item.DailyPrice}, nil
	case KindServiceBooking:
		var svc models.Service
		if err := s.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
			return nil, mapNoRows(err)
		}
		return &PricedSubject{ID: svc.ID, Title: svc.Title, OwnerID: svc.ProviderID, DailyPrice: svc.DailyPrice}, nil
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
}

func (s *GormStore) DisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("display_name", "first_name", "last_name").
		First(&user, "id = ?", userID).Error; err != nil {
		return "", mapNoRows(err)
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.FirstName + " " + user.LastName, nil
}

// AttachPaymentSession writes the session correlation. The status guard keeps
// a paid request from being flipped back to pending by a late double-submit;
// an abandoned pending session may be overwritten by a fresh attempt.
func (s *GormStore) AttachPaymentSession(ctx context.Context, kind RequestKind, id uuid.UUID, sessionID string) error {
	updates := map[string]any{
		"payment_session_id": sessionID,
		"payment_status":     models.PaymentStatusPending,
		"updated_at":         time.Now(),
	}

	var res *gorm.DB
	switch kind {
	case KindBorrowRequest:
		res = s.db.WithContext(ctx).Model(&models.BorrowRequest{}).
			Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
			Updates(updates)
	case KindServiceBooking:
		res = s.db.WithContext(ctx).Model(&models.ServiceBooking{}).
			Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
			Updates(updates)
	default:
		return fmt.Errorf("unknown request kind %q", kind)
	}

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (s *GormStore) FindBySession(ctx context.Context, sessionID string) (*TransactionRequest, error) {
	var req models.BorrowRequest
	err := s.db.WithContext(ctx).First(&req, "payment_session_id = ?", sessionID).Error
	if err == nil {
		return s.FindTransactionRequest(ctx, KindBorrowRequest, req.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var booking models.ServiceBooking
	err = s.db.WithContext(ctx).First(&booking, "payment_session_id = ?", sessionID).Error
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s.FindTransactionRequest(ctx, KindServiceBooking, booking.ID)
}

func (s *GormStore) MarkPaymentStatus(ctx context.Context, kind RequestKind, id string, from, to string) error {
	updates := map[string]any{
		"payment_status": to,
		"updated_at":     time.Now(),
	}

	var res *gorm.DB
	switch kind {
	case KindBorrowRequest:
		res = s.db.WithContext(ctx).Model(&models.BorrowRequest{}).
			Where("id = ? AND payment_status = ?", id, from).
			Updates(updates)
	case KindServiceBooking:
		res = s.db.WithContext(ctx).Model(&models.ServiceBooking{}).
			Where("id = ? AND payment_status = ?", id, from).
			Updates(updates)
	default:
		return fmt.Errorf("unknown request kind %q", kind)
	}

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// ApplyDelta upserts the wallet row with database-side arithmetic so two
// concurrent deltas to the same wallet never lose an update, then appends the
// ledger entry in the same transaction.
func (s *GormStore) ApplyDelta(ctx context.Context, delta WalletDelta) (*models.Wallet, error) {
	var out models.Wallet

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		assignments := map[string]any{"updated_at": now}

		wallet := models.Wallet{UserID: delta.UserID}
		signed := delta.Amount
		direction := models.EntryDirectionCredit
		if delta.IsEarning {
			wallet.AvailableBalance = delta.Amount
			wallet.TotalEarned = delta.Amount
			assignments["available_balance"] = gorm.Expr("wallets.available_balance + ?", delta.Amount)
			assignments["total_earned"] = gorm.Expr("wallets.total_earned + ?", delta.Amount)
		} else {
			wallet.AvailableBalance = -delta.Amount
			wallet.TotalSpent = delta.Amount
			assignments["available_balance"] = gorm.Expr("wallets.available_balance - ?", delta.Amount)
			assignments["total_spent"] = gorm.Expr("wallets.total_spent + ?", delta.Amount)
			signed = -delta.Amount
			direction = models.EntryDirectionDebit
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).Create(&wallet).Error; err != nil {
			return err
		}

		entry := models.WalletEntry{
			UserID:        delta.UserID,
			Amount:        signed,
			Direction:     direction,
			ReferenceKind: delta.ReferenceKind,
			ReferenceID:   delta.ReferenceID,
			Description:   delta.Description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return tx.First(&out, "user_id = ?", delta.UserID).Error
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *GormStore) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, mapNoRows(err)
	}
	return &wallet, nil
}

func (s *GormStore) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.WalletEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.WalletEntry
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoRows
	}
	return err
}
