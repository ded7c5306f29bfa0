package models

import "github.com/google/uuid"

// Item is a physical good offered for borrowing, priced per day.
type Item struct {
	BaseModel
	OwnerID     uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner       *User     `json:"owner,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `gorm:"index" json:"category"`
	DailyPrice  float64   `json:"daily_price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url"`
	Location    string    `json:"location"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
}

// Service is a bookable offering (tutoring, repairs, ...), priced per day.
type Service struct {
	BaseModel
	ProviderID  uuid.UUID `gorm:"type:uuid;index" json:"provider_id"`
	Provider    *User     `json:"provider,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `gorm:"index" json:"category"`
	DailyPrice  float64   `json:"daily_price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url"`
	Location    string    `json:"location"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
}
