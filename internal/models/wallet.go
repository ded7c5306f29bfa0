package models

import "github.com/google/uuid"

// Wallet keeps per-user balances. AvailableBalance reflects the full history
// of applied deltas; TotalEarned and TotalSpent are lifetime counters and only
// ever grow.
type Wallet struct {
	BaseModel
	UserID           uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	AvailableBalance float64   `json:"available_balance"`
	PendingBalance   float64   `json:"pending_balance"`
	TotalEarned      float64   `json:"total_earned"`
	TotalSpent       float64   `json:"total_spent"`
}

// Wallet entry directions.
const (
	EntryDirectionCredit = "credit"
	EntryDirectionDebit  = "debit"
)

// WalletEntry is one immutable leg of the wallet ledger. Amount is signed:
// positive for credits, negative for debits.
type WalletEntry struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Amount        float64   `json:"amount"`
	Direction     string    `json:"direction"`
	ReferenceKind string    `json:"reference_kind"`
	ReferenceID   string    `gorm:"index" json:"reference_id"`
	Description   string    `json:"description"`
}
