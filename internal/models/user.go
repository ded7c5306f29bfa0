package models

// User represents an authenticated marketplace member. A user can lend items,
// provide services, and borrow or book from others.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"-"`
	AvatarURL    string `json:"avatar_url"`
	Bio          string `json:"bio"`

	Items    []Item    `gorm:"foreignKey:OwnerID" json:"items,omitempty"`
	Services []Service `gorm:"foreignKey:ProviderID" json:"services,omitempty"`
}
