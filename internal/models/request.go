package models

import (
	"time"

	"github.com/google/uuid"
)

// Request/booking lifecycle states.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusDeclined  = "declined"
	RequestStatusCompleted = "completed"
	RequestStatusCancelled = "cancelled"
)

// Payment states for a request or booking. The empty string means no payment
// attempt has been made yet.
const (
	PaymentStatusUnset   = ""
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// BorrowRequest is a borrower's request to take an item for a date range.
type BorrowRequest struct {
	BaseModel
	ItemID     uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	Item       *Item     `json:"item,omitempty"`
	BorrowerID uuid.UUID `gorm:"type:uuid;index" json:"borrower_id"`
	Borrower   *User     `json:"borrower,omitempty"`
	LenderID   uuid.UUID `gorm:"type:uuid;index" json:"lender_id"`
	Lender     *User     `json:"lender,omitempty"`

	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Status      string    `gorm:"index" json:"status"`

	PaymentStatus    string `gorm:"index" json:"payment_status"`
	PaymentSessionID string `gorm:"index" json:"payment_session_id"`

	Notes string `json:"notes"`
}

// ServiceBooking is a customer's booking of a service for a date range.
type ServiceBooking struct {
	BaseModel
	ServiceID  uuid.UUID `gorm:"type:uuid;index" json:"service_id"`
	Service    *Service  `json:"service,omitempty"`
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *User     `json:"customer,omitempty"`
	ProviderID uuid.UUID `gorm:"type:uuid;index" json:"provider_id"`
	Provider   *User     `json:"provider,omitempty"`

	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Status      string    `gorm:"index" json:"status"`

	PaymentStatus    string `gorm:"index" json:"payment_status"`
	PaymentSessionID string `gorm:"index" json:"payment_session_id"`

	Notes string `json:"notes"`
}
